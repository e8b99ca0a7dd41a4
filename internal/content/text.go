package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"brandpost/internal/app/model"
	"brandpost/internal/llm"
	"brandpost/internal/platform"
	"brandpost/pkg/prompts"
	"brandpost/pkg/retry"
)

type TextOptions struct {
	MaxTokens          int
	Temperature        float64
	RegenerateAttempts int
	Retry              retry.Config
}

type TextGenerator struct {
	llm     llm.TextGenerator
	prompts *prompts.Prompts
	opts    TextOptions
	now     func() time.Time
}

func NewTextGenerator(gen llm.TextGenerator, p *prompts.Prompts, opts TextOptions) *TextGenerator {
	if opts.RegenerateAttempts < 0 {
		opts.RegenerateAttempts = 0
	}
	return &TextGenerator{
		llm:     gen,
		prompts: p,
		opts:    opts,
		now:     time.Now,
	}
}

func (g *TextGenerator) Provider() string { return g.llm.Name() }

// Generate asks the text capability for one post. An over-long answer is
// regenerated up to RegenerateAttempts times and then cut to the platform
// limit on a word boundary.
func (g *TextGenerator) Generate(ctx context.Context, profile *model.BrandProfile, params model.GenerationParams, spec platform.Spec) (*model.TextPost, error) {
	tp := prompts.TextParams{
		Tone:               profile.Tone,
		Voice:              voiceFor(profile.Sentiment),
		AvgSentenceLength:  profile.StyleMetrics.AvgSentenceLength,
		VocabularyRichness: profile.StyleMetrics.VocabularyRichness,
		Keywords:           profile.StyleKeywords,
		PostType:           params.PostType,
		Platform:           spec.Name,
		TargetAudience:     params.TargetAudience,
		ContentGoals:       params.ContentGoals,
		MaxLength:          spec.MaxTextLength,
	}

	system, err := g.prompts.RenderTextSystem(tp)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	var body, user string
	attempts := 0
	for attempt := 0; attempt <= g.opts.RegenerateAttempts; attempt++ {
		tp.Attempt = attempt
		user, err = g.prompts.RenderTextUser(tp)
		if err != nil {
			return nil, fmt.Errorf("render prompt: %w", err)
		}

		req := llm.TextRequest{
			System:      system,
			Prompt:      user,
			MaxTokens:   g.opts.MaxTokens,
			Temperature: g.opts.Temperature,
		}
		err = retry.Do(ctx, g.opts.Retry, "generate text", func(ctx context.Context) error {
			var genErr error
			body, genErr = g.llm.GenerateText(ctx, req)
			return genErr
		})
		if err != nil {
			return nil, err
		}
		attempts++

		body = strings.TrimSpace(body)
		if utf8.RuneCountInString(body) <= spec.MaxTextLength {
			break
		}
		slog.Debug("Generated text exceeds platform limit",
			"platform", spec.Name,
			"length", utf8.RuneCountInString(body),
			"limit", spec.MaxTextLength,
			"attempt", attempt+1)
	}

	post := &model.TextPost{
		Platform:    spec.Name,
		GeneratedAt: g.now().UTC(),
		Prompt:      system + "\n\n" + user,
		Attempts:    attempts,
	}
	post.Body = platform.FitText(body, spec.MaxTextLength)
	post.Truncated = post.Body != body
	if post.Truncated {
		slog.Warn("Truncated generated text to platform limit", "platform", spec.Name, "limit", spec.MaxTextLength)
	}

	return post, nil
}

func voiceFor(sentiment float64) string {
	switch {
	case sentiment >= 0.5:
		return "enthusiastic and upbeat"
	case sentiment >= 0.05:
		return "positive and warm"
	case sentiment > -0.05:
		return "balanced and neutral"
	case sentiment > -0.5:
		return "measured and serious"
	default:
		return "candid and direct"
	}
}
