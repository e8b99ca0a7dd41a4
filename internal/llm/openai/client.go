package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"brandpost/internal/llm"
)

const providerName = "openai"

var (
	_ llm.TextGenerator  = (*Client)(nil)
	_ llm.ImageGenerator = (*Client)(nil)
)

type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string

	// Size forces an image size such as 1024x1024. Empty or "auto" picks the
	// size matching the requested orientation.
	Size    string
	Quality string
}

type Client struct {
	client     openai.Client
	textModel  string
	imageModel string
	size       string
	quality    string
}

// NewClient disables the SDK's own retries; callers retry through pkg/retry.
func NewClient(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Client{
		client:     openai.NewClient(reqOpts...),
		textModel:  opts.TextModel,
		imageModel: opts.ImageModel,
		size:       opts.Size,
		quality:    opts.Quality,
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	const op = "generate text"

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.textModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapError(op, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewError(providerName, op, llm.ErrNoResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.NewError(providerName, op, llm.ErrEmptyResponse)
	}

	return content, nil
}

func (c *Client) GenerateImage(ctx context.Context, req llm.ImageRequest) ([]byte, error) {
	const op = "generate image"

	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  c.imageModel,
		N:      openai.Int(1),
		Size:   nativeSize(req.Width, req.Height),
	}
	if c.size != "" && c.size != "auto" {
		params.Size = openai.ImageGenerateParamsSize(c.size)
	}
	if c.quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(c.quality)
	}
	// gpt-image models always answer with base64 and reject the field.
	if strings.HasPrefix(c.imageModel, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, wrapError(op, err)
	}

	if len(resp.Data) == 0 {
		return nil, llm.NewError(providerName, op, llm.ErrNoResponse)
	}
	if resp.Data[0].B64JSON == "" {
		return nil, llm.NewError(providerName, op, llm.ErrEmptyResponse)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, llm.NewError(providerName, op, fmt.Errorf("decode image: %w", err))
	}
	return data, nil
}

// nativeSize picks the DALL-E 3 size whose orientation matches the target.
func nativeSize(width, height int) openai.ImageGenerateParamsSize {
	switch {
	case width <= 0 || height <= 0:
		return openai.ImageGenerateParamsSize1024x1024
	case float64(width)/float64(height) >= 1.3:
		return openai.ImageGenerateParamsSize1792x1024
	case float64(height)/float64(width) >= 1.3:
		return openai.ImageGenerateParamsSize1024x1792
	}
	return openai.ImageGenerateParamsSize1024x1024
}

func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.NewStatusError(providerName, op, apiErr.StatusCode, err)
	}
	return llm.NewError(providerName, op, err)
}
