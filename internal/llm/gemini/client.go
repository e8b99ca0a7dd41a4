package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"brandpost/internal/llm"
)

const providerName = "gemini"

var (
	_ llm.TextGenerator  = (*Client)(nil)
	_ llm.ImageGenerator = (*Client)(nil)
)

// Imagen only renders these aspect ratios.
var aspectRatios = []struct {
	name  string
	ratio float64
}{
	{"1:1", 1},
	{"4:3", 4.0 / 3.0},
	{"3:4", 3.0 / 4.0},
	{"16:9", 16.0 / 9.0},
	{"9:16", 9.0 / 16.0},
}

type Options struct {
	APIKey     string
	Project    string
	Location   string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewClient talks to the Gemini API when an API key is given and to Vertex AI
// otherwise.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		Project:  opts.Project,
		Location: opts.Location,
		Backend:  genai.BackendVertexAI,
	}
	if opts.APIKey != "" {
		cfg = &genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:     client,
		textModel:  opts.TextModel,
		imageModel: opts.ImageModel,
	}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	const op = "generate text"

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(req.Prompt), config)
	if err != nil {
		return "", wrapError(op, err)
	}

	if len(resp.Candidates) == 0 {
		return "", llm.NewError(providerName, op, llm.ErrNoResponse)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.NewError(providerName, op, llm.ErrEmptyResponse)
	}
	return text, nil
}

func (c *Client) GenerateImage(ctx context.Context, req llm.ImageRequest) ([]byte, error) {
	const op = "generate image"

	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    nearestAspectRatio(req.Width, req.Height),
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		return nil, wrapError(op, err)
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, llm.NewError(providerName, op, llm.ErrNoResponse)
	}
	if reason := resp.GeneratedImages[0].RAIFilteredReason; reason != "" {
		return nil, llm.NewError(providerName, op, fmt.Errorf("image filtered: %s", reason))
	}

	data := resp.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return nil, llm.NewError(providerName, op, llm.ErrEmptyResponse)
	}
	return data, nil
}

func nearestAspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return aspectRatios[0].name
	}
	target := float64(width) / float64(height)

	best, bestDiff := aspectRatios[0].name, math.Inf(1)
	for _, ar := range aspectRatios {
		diff := math.Abs(math.Log(target / ar.ratio))
		if diff < bestDiff {
			best, bestDiff = ar.name, diff
		}
	}
	return best
}

func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewStatusError(providerName, op, apiErr.Code, err)
	}
	return llm.NewError(providerName, op, err)
}
