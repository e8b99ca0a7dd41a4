package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"brandpost/internal/llm"
)

const providerName = "groq"

var _ llm.TextGenerator = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

// NewClient creates a Groq chat client. groq-go already retries rate limits
// and server errors, so anything it returns is treated as final unless it is a
// network failure.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	var (
		client *groq.Client
		err    error
	)
	if baseURL != "" {
		client, err = groq.NewClient(apiKey, groq.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
	} else {
		client, err = groq.NewClient(apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	const op = "generate text"

	chatReq := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: req.System},
			{Role: groq.RoleUser, Content: req.Prompt},
		},
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}

	resp, err := c.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", llm.NewError(providerName, op, err)
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
