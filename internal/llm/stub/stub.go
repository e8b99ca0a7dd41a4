package stub

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"

	"brandpost/internal/llm"
)

const providerName = "stub"

var (
	_ llm.TextGenerator  = (*Provider)(nil)
	_ llm.ImageGenerator = (*Provider)(nil)
)

var stubPosts = []string{
	"Big things are brewing behind the scenes. Thanks for growing with us! #ComingSoon",
	"Quality you can feel, service you can trust. Come see what's new this week. #Quality",
	"Your feedback shaped this release. Thank you for being part of our community! #Community",
}

// Provider answers every request offline and deterministically, so the
// pipeline can run without credentials.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return stubPosts[hashString(req.System+req.Prompt)%uint32(len(stubPosts))], nil
}

// GenerateImage renders a gradient PNG at exactly the requested size, tinted
// by the prompt.
func (p *Provider) GenerateImage(ctx context.Context, req llm.ImageRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, llm.NewError(providerName, "generate image", fmt.Errorf("invalid size %dx%d", req.Width, req.Height))
	}

	h := hashString(req.Prompt)
	base := color.RGBA{R: uint8(h), G: uint8(h >> 8), B: uint8(h >> 16), A: 255}

	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	for y := 0; y < req.Height; y++ {
		shade := uint8(y * 255 / req.Height)
		row := color.RGBA{R: base.R/2 + shade/2, G: base.G/2 + shade/2, B: base.B, A: 255}
		for x := 0; x < req.Width; x++ {
			img.SetRGBA(x, y, row)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, llm.NewError(providerName, "generate image", fmt.Errorf("encode png: %w", err))
	}
	return buf.Bytes(), nil
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
