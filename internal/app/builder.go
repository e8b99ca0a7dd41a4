package app

import (
	"context"
	"fmt"

	"brandpost/internal/app/model"
	"brandpost/internal/brand"
	"brandpost/internal/content"
	"brandpost/internal/llm"
	"brandpost/internal/llm/gemini"
	"brandpost/internal/llm/groq"
	"brandpost/internal/llm/openai"
	"brandpost/internal/llm/stub"
	"brandpost/internal/nlp"
	"brandpost/internal/storage"
	"brandpost/pkg/config"
	"brandpost/pkg/prompts"
	"brandpost/pkg/retry"
)

func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.LoadFrom(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	textProvider, err := NewTextProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	imageProvider, err := NewImageProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := retryConfig(cfg.Retry)

	extractor := brand.NewExtractor(nlp.NewAnalyzer(), brand.Guidelines{
		Colors: cfg.BrandGuidelines.Colors,
		Style:  cfg.BrandGuidelines.Style,
		Tone:   cfg.BrandGuidelines.Tone,
	})

	textGen := content.NewTextGenerator(textProvider, p, content.TextOptions{
		MaxTokens:          cfg.Providers.Text.MaxTokens,
		Temperature:        cfg.Providers.Text.Temperature,
		RegenerateAttempts: cfg.Generation.RegenerateAttempts,
		Retry:              retryCfg,
	})

	visualGen := content.NewVisualGenerator(imageProvider, p, content.VisualOptions{
		Preferences: model.VisualPreferences{
			ImageStyle:  cfg.BrandGuidelines.VisualPreferences.ImageStyle,
			Composition: cfg.BrandGuidelines.VisualPreferences.Composition,
		},
		Retry: retryCfg,
	})

	mirrors, err := buildMirrors(ctx, cfg)
	if err != nil {
		return nil, err
	}
	localStorage := storage.NewLocalStorage(cfg.Output.Dir, mirrors...)

	service := NewService(ServiceOptions{
		Config:    cfg,
		Extractor: extractor,
		Text:      textGen,
		Visual:    visualGen,
		Writer:    localStorage,
	})
	service.closers = append(service.closers, localStorage.Close)

	return service, nil
}

// NewTextProvider returns the text capability selected by providers.text.
func NewTextProvider(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	pc := cfg.Providers.Text
	key, _ := cfg.APIKey(pc.Name)

	switch pc.Name {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Options{
			APIKey:    key,
			BaseURL:   pc.BaseURL,
			TextModel: pc.Model,
		}), nil
	case config.ProviderGroq:
		return groq.NewClient(key, pc.Model, pc.BaseURL)
	case config.ProviderGemini:
		return gemini.NewClient(ctx, geminiOptions(cfg, pc, true))
	case config.ProviderStub:
		return stub.NewProvider(), nil
	}
	return nil, &config.ConfigError{Field: "providers.text.name", Err: fmt.Errorf("unknown provider %q", pc.Name)}
}

// NewImageProvider returns the image capability selected by providers.image.
func NewImageProvider(ctx context.Context, cfg *config.Config) (llm.ImageGenerator, error) {
	pc := cfg.Providers.Image
	key, _ := cfg.APIKey(pc.Name)

	switch pc.Name {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Options{
			APIKey:     key,
			BaseURL:    pc.BaseURL,
			ImageModel: pc.Model,
			Size:       pc.Size,
			Quality:    pc.Quality,
		}), nil
	case config.ProviderGemini:
		return gemini.NewClient(ctx, geminiOptions(cfg, pc, false))
	case config.ProviderStub:
		return stub.NewProvider(), nil
	}
	return nil, &config.ConfigError{Field: "providers.image.name", Err: fmt.Errorf("provider %q cannot generate images", pc.Name)}
}

func geminiOptions(cfg *config.Config, pc config.ProviderConfig, text bool) gemini.Options {
	opts := gemini.Options{
		APIKey:   cfg.GeminiAPIKey,
		Project:  cfg.GCPProject,
		Location: pc.Location,
		BaseURL:  pc.BaseURL,
	}
	if text {
		opts.TextModel = pc.Model
	} else {
		opts.ImageModel = pc.Model
	}
	return opts
}

func buildMirrors(ctx context.Context, cfg *config.Config) ([]storage.Mirror, error) {
	var mirrors []storage.Mirror

	if gcs := cfg.Output.GCS; gcs.Bucket != "" {
		m, err := storage.NewGCSMirror(ctx, gcs.Bucket, gcs.Prefix, gcs.CredentialsFile)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, m)
	}

	if s3 := cfg.Output.S3; s3.Bucket != "" {
		m, err := storage.NewS3Mirror(storage.S3Options{
			Bucket:          s3.Bucket,
			Prefix:          s3.Prefix,
			Endpoint:        s3.Endpoint,
			Region:          s3.Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			for _, opened := range mirrors {
				_ = opened.Close()
			}
			return nil, err
		}
		mirrors = append(mirrors, m)
	}

	return mirrors, nil
}

func retryConfig(rc config.RetryConfig) retry.Config {
	return retry.Config{
		MaxAttempts:    rc.MaxAttempts,
		InitialDelay:   rc.InitialDelay,
		MaxDelay:       rc.MaxDelay,
		Multiplier:     rc.Multiplier,
		AttemptTimeout: rc.AttemptTimeout,
	}
}
