package content

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"brandpost/internal/app/model"
	"brandpost/internal/llm"
	"brandpost/internal/platform"
	"brandpost/pkg/prompts"
	"brandpost/pkg/retry"
)

const (
	jpegQuality = 95
	imageFormat = "jpeg"
)

type VisualOptions struct {
	Preferences model.VisualPreferences
	Retry       retry.Config
}

type VisualGenerator struct {
	llm     llm.ImageGenerator
	prompts *prompts.Prompts
	opts    VisualOptions
}

func NewVisualGenerator(gen llm.ImageGenerator, p *prompts.Prompts, opts VisualOptions) *VisualGenerator {
	return &VisualGenerator{llm: gen, prompts: p, opts: opts}
}

func (g *VisualGenerator) Provider() string { return g.llm.Name() }

func (g *VisualGenerator) Generate(ctx context.Context, profile *model.BrandProfile, post *model.TextPost, params model.GenerationParams, spec platform.Spec) (*model.ImageAsset, error) {
	prompt, err := g.prompts.RenderImage(prompts.ImageParams{
		Concepts:    keyConcepts(post.Body),
		Style:       profile.Style,
		Colors:      profile.Colors,
		Mood:        params.PostType,
		ImageStyle:  g.opts.Preferences.ImageStyle,
		Composition: g.opts.Preferences.Composition,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	req := llm.ImageRequest{Prompt: prompt, Width: spec.Width, Height: spec.Height}

	var raw []byte
	err = retry.Do(ctx, g.opts.Retry, "generate image", func(ctx context.Context) error {
		var genErr error
		raw, genErr = g.llm.GenerateImage(ctx, req)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	data, err := Normalize(raw, spec.Width, spec.Height)
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	return &model.ImageAsset{
		Data:   data,
		Width:  spec.Width,
		Height: spec.Height,
		Format: imageFormat,
		Prompt: prompt,
	}, nil
}

// Normalize decodes a png, jpeg or webp image, center-crops it to the target
// aspect ratio, scales it to exactly width x height and re-encodes it as JPEG.
func Normalize(raw []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	crop := cropRect(src.Bounds(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// cropRect returns the largest centered rectangle of b with the aspect ratio
// width:height.
func cropRect(b image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()

	if srcW*height > srcH*width {
		cropW := srcH * width / height
		x0 := b.Min.X + (srcW-cropW)/2
		return image.Rect(x0, b.Min.Y, x0+cropW, b.Max.Y)
	}

	cropH := srcW * height / width
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+cropH)
}

// keyConcepts drops hashtags and mentions from a post.
func keyConcepts(body string) string {
	var words []string
	for _, w := range strings.Fields(body) {
		if strings.HasPrefix(w, "#") || strings.HasPrefix(w, "@") {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
