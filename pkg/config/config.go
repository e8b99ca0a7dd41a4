package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"brandpost/internal/platform"
)

const (
	DefaultConfigPath = "config.yaml"

	defaultSecretsFile        = "config.env"
	defaultOutputDir          = "generated_content"
	defaultMirrorPrefix       = "brandpost"
	defaultS3Region           = "us-east-1"
	defaultNumPosts           = 2
	defaultPostType           = "promotional"
	defaultTargetAudience     = "young professionals"
	defaultPlatform           = "instagram"
	defaultStyle              = "modern"
	defaultTone               = "professional"
	defaultImageStyle         = "minimalist"
	defaultComposition        = "centered"
	defaultTextProvider       = ProviderOpenAI
	defaultImageProvider      = ProviderOpenAI
	defaultOpenAITextModel    = "gpt-4o-mini"
	defaultGroqTextModel      = "llama-3.3-70b-versatile"
	defaultGeminiTextModel    = "gemini-2.5-flash"
	defaultOpenAIImageModel   = "dall-e-3"
	defaultGeminiImageModel   = "imagen-4.0-generate-001"
	defaultImageSize          = ImageSizeAuto
	defaultImageQuality       = "standard"
	defaultGeminiLocation     = "us-central1"
	defaultMaxTokens          = 150
	defaultTemperature        = 0.7
	defaultConcurrency        = 1
	defaultRegenerateAttempts = 1
	defaultMaxAttempts        = 3
	defaultInitialDelay       = 500 * time.Millisecond
	defaultMaxDelay           = 5 * time.Second
	defaultMultiplier         = 2.0
	defaultAttemptTimeout     = 60 * time.Second
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// ImageSizeAuto requests the native provider size closest to the platform's
// aspect ratio.
const ImageSizeAuto = "auto"

const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

var defaultSamples = []string{
	"Excited to announce our new product line! 🚀 #Innovation #Quality",
	"Customer satisfaction is our top priority. Thanks for your continued support! 💯",
	"Join us this weekend for our biggest sale of the year! Don't miss out! 🎉",
}

var defaultColors = []string{"#FF5733", "#33FF57", "#3357FF"}

var (
	hexColorRegex  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	imageSizeRegex = regexp.MustCompile(`^[0-9]+x[0-9]+$`)
)

type Config struct {
	OpenAIAPIKey      string `yaml:"-"`
	GroqAPIKey        string `yaml:"-"`
	GeminiAPIKey      string `yaml:"-"`
	GCPProject        string `yaml:"-"`
	S3AccessKeyID     string `yaml:"-"`
	S3SecretAccessKey string `yaml:"-"`

	BrandGuidelines  BrandGuidelines  `yaml:"brand_guidelines"`
	GenerationParams GenerationParams `yaml:"generation_params"`
	BrandSamples     []string         `yaml:"brand_samples"`
	SamplesFile      string           `yaml:"samples_file"`
	Providers        ProvidersConfig  `yaml:"providers"`
	Generation       GenerationConfig `yaml:"generation"`
	Retry            RetryConfig      `yaml:"retry"`
	Output           OutputConfig     `yaml:"output"`
	PromptsFile      string           `yaml:"prompts_file"`
	Secrets          SecretsConfig    `yaml:"secrets"`
}

type BrandGuidelines struct {
	Colors            []string          `yaml:"colors"`
	Style             string            `yaml:"style"`
	Tone              string            `yaml:"tone"`
	VisualPreferences VisualPreferences `yaml:"visual_preferences"`
}

type VisualPreferences struct {
	ImageStyle  string `yaml:"image_style"`
	Composition string `yaml:"composition"`
}

type GenerationParams struct {
	NumPosts       int      `yaml:"num_posts"`
	PostType       string   `yaml:"post_type"`
	TargetAudience string   `yaml:"target_audience"`
	Platform       string   `yaml:"platform"`
	ContentGoals   []string `yaml:"content_goals"`
}

type ProvidersConfig struct {
	Text  ProviderConfig `yaml:"text"`
	Image ProviderConfig `yaml:"image"`
}

type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Size        string  `yaml:"size"`
	Quality     string  `yaml:"quality"`
	Location    string  `yaml:"location"`
}

type GenerationConfig struct {
	Concurrency        int    `yaml:"concurrency"`
	FailurePolicy      string `yaml:"failure_policy"`
	RegenerateAttempts int    `yaml:"regenerate_attempts"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialDelay   time.Duration `yaml:"initial_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	Multiplier     float64       `yaml:"multiplier"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

type OutputConfig struct {
	Dir string    `yaml:"dir"`
	GCS GCSConfig `yaml:"gcs"`
	S3  S3Config  `yaml:"s3"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

type SecretsConfig struct {
	File      string `yaml:"file"`
	GCPSecret string `yaml:"gcp_secret"`
}

type Options struct {
	Path        string
	SecretsFile string
}

// ConfigError reports a configuration file that cannot be read, parsed or
// validated. It is always fatal.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CredentialError reports a missing or unreadable API key for a configured
// provider.
type CredentialError struct {
	Provider string
	EnvVar   string
	Err      error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials: %s: %v (set %s)", e.Provider, e.Err, e.EnvVar)
}

func (e *CredentialError) Unwrap() error { return e.Err }

var errMissingKey = errors.New("api key not found")

// accessSecret is replaced in tests.
var accessSecret = accessSecretVersion

func Load(ctx context.Context, opts Options) (*Config, error) {
	path := opts.Path
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{}
	applyNumericDefaults(cfg)
	found, err := loadYAMLConfig(cfg, path)
	if err != nil {
		return nil, err
	}

	if opts.SecretsFile != "" {
		cfg.Secrets.File = opts.SecretsFile
	}
	applySecretsDefaults(cfg)
	loadEnv(cfg)

	if !found {
		cfg.BrandSamples = append([]string(nil), defaultSamples...)
	}
	if err := loadSamplesFile(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := resolveCredentials(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("No config file found, using defaults", "path", path)
		return false, nil
	}
	if err != nil {
		return false, &ConfigError{Err: fmt.Errorf("read %s: %w", path, err)}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, &ConfigError{Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return true, nil
}

func loadEnv(cfg *Config) {
	if err := godotenv.Load(cfg.Secrets.File); err != nil {
		slog.Debug("No secrets file loaded, relying on environment variables", "path", cfg.Secrets.File)
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GCPProject = os.Getenv("GOOGLE_CLOUD_PROJECT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	if secret := os.Getenv("BRANDPOST_GCP_SECRET"); secret != "" {
		cfg.Secrets.GCPSecret = secret
	}
}

func loadSamplesFile(cfg *Config) error {
	if cfg.SamplesFile == "" {
		return nil
	}

	f, err := os.Open(cfg.SamplesFile)
	if err != nil {
		return &ConfigError{Field: "samples_file", Err: err}
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			cfg.BrandSamples = append(cfg.BrandSamples, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return &ConfigError{Field: "samples_file", Err: err}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyBrandDefaults(cfg)
	applyParamsDefaults(cfg)
	applyProviderDefaults(&cfg.Providers.Text, defaultTextProvider, true)
	applyProviderDefaults(&cfg.Providers.Image, defaultImageProvider, false)
	applyGenerationDefaults(cfg)
	applyOutputDefaults(cfg)
}

func applySecretsDefaults(cfg *Config) {
	if cfg.Secrets.File == "" {
		cfg.Secrets.File = defaultSecretsFile
	}
}

func applyBrandDefaults(cfg *Config) {
	if len(cfg.BrandGuidelines.Colors) == 0 {
		cfg.BrandGuidelines.Colors = append([]string(nil), defaultColors...)
	}
	if cfg.BrandGuidelines.Style == "" {
		cfg.BrandGuidelines.Style = defaultStyle
	}
	if cfg.BrandGuidelines.Tone == "" {
		cfg.BrandGuidelines.Tone = defaultTone
	}
	if cfg.BrandGuidelines.VisualPreferences.ImageStyle == "" {
		cfg.BrandGuidelines.VisualPreferences.ImageStyle = defaultImageStyle
	}
	if cfg.BrandGuidelines.VisualPreferences.Composition == "" {
		cfg.BrandGuidelines.VisualPreferences.Composition = defaultComposition
	}
}

// applyNumericDefaults runs before the yaml is decoded, so keys present in the
// file override these values and an explicit zero stays zero.
func applyNumericDefaults(cfg *Config) {
	cfg.GenerationParams.NumPosts = defaultNumPosts
	cfg.Providers.Text.MaxTokens = defaultMaxTokens
	cfg.Providers.Text.Temperature = defaultTemperature
	cfg.Generation.Concurrency = defaultConcurrency
	cfg.Generation.RegenerateAttempts = defaultRegenerateAttempts
	cfg.Retry = RetryConfig{
		MaxAttempts:    defaultMaxAttempts,
		InitialDelay:   defaultInitialDelay,
		MaxDelay:       defaultMaxDelay,
		Multiplier:     defaultMultiplier,
		AttemptTimeout: defaultAttemptTimeout,
	}
}

func applyParamsDefaults(cfg *Config) {
	if cfg.GenerationParams.PostType == "" {
		cfg.GenerationParams.PostType = defaultPostType
	}
	if cfg.GenerationParams.TargetAudience == "" {
		cfg.GenerationParams.TargetAudience = defaultTargetAudience
	}
	if cfg.GenerationParams.Platform == "" {
		cfg.GenerationParams.Platform = defaultPlatform
	}
}

func applyProviderDefaults(p *ProviderConfig, name string, text bool) {
	if p.Name == "" {
		p.Name = name
	}
	p.Name = strings.ToLower(p.Name)

	if p.Model == "" {
		p.Model = defaultModel(p.Name, text)
	}
	if !text {
		if p.Size == "" {
			p.Size = defaultImageSize
		}
		if p.Quality == "" {
			p.Quality = defaultImageQuality
		}
	}
	if p.Location == "" {
		p.Location = defaultGeminiLocation
	}
}

func defaultModel(provider string, text bool) string {
	switch {
	case provider == ProviderOpenAI && text:
		return defaultOpenAITextModel
	case provider == ProviderOpenAI:
		return defaultOpenAIImageModel
	case provider == ProviderGroq:
		return defaultGroqTextModel
	case provider == ProviderGemini && text:
		return defaultGeminiTextModel
	case provider == ProviderGemini:
		return defaultGeminiImageModel
	}
	return ""
}

func applyGenerationDefaults(cfg *Config) {
	if cfg.Generation.FailurePolicy == "" {
		cfg.Generation.FailurePolicy = PolicySkip
	}
	cfg.Generation.FailurePolicy = strings.ToLower(cfg.Generation.FailurePolicy)
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Output.GCS.Prefix == "" {
		cfg.Output.GCS.Prefix = defaultMirrorPrefix
	}
	if cfg.Output.S3.Prefix == "" {
		cfg.Output.S3.Prefix = defaultMirrorPrefix
	}
	if cfg.Output.S3.Region == "" {
		cfg.Output.S3.Region = defaultS3Region
	}
}

// Default returns the configuration used when no config file exists, without
// touching the environment.
func Default() *Config {
	cfg := &Config{BrandSamples: append([]string(nil), defaultSamples...)}
	applyNumericDefaults(cfg)
	applySecretsDefaults(cfg)
	applyDefaults(cfg)
	return cfg
}

func (c *Config) Validate() error {
	if c.GenerationParams.NumPosts <= 0 {
		return &ConfigError{Field: "generation_params.num_posts", Err: fmt.Errorf("must be positive, got %d", c.GenerationParams.NumPosts)}
	}
	if _, err := platform.Lookup(c.GenerationParams.Platform); err != nil {
		return &ConfigError{Field: "generation_params.platform", Err: err}
	}
	for _, color := range c.BrandGuidelines.Colors {
		if !hexColorRegex.MatchString(color) {
			return &ConfigError{Field: "brand_guidelines.colors", Err: fmt.Errorf("invalid color %q", color)}
		}
	}
	if err := validateProvider("providers.text.name", c.Providers.Text.Name, true); err != nil {
		return err
	}
	if err := validateProvider("providers.image.name", c.Providers.Image.Name, false); err != nil {
		return err
	}
	if size := c.Providers.Image.Size; size != ImageSizeAuto && !imageSizeRegex.MatchString(size) {
		return &ConfigError{Field: "providers.image.size", Err: fmt.Errorf("want %q or WIDTHxHEIGHT, got %q", ImageSizeAuto, size)}
	}
	if c.Providers.Text.Temperature < 0 {
		return &ConfigError{Field: "providers.text.temperature", Err: errors.New("must not be negative")}
	}
	if c.Providers.Text.MaxTokens < 0 {
		return &ConfigError{Field: "providers.text.max_tokens", Err: errors.New("must not be negative")}
	}
	if c.Generation.Concurrency < 1 {
		return &ConfigError{Field: "generation.concurrency", Err: fmt.Errorf("must be at least 1, got %d", c.Generation.Concurrency)}
	}
	if c.Generation.FailurePolicy != PolicySkip && c.Generation.FailurePolicy != PolicyAbort {
		return &ConfigError{Field: "generation.failure_policy", Err: fmt.Errorf("unknown policy %q", c.Generation.FailurePolicy)}
	}
	if c.Generation.RegenerateAttempts < 0 {
		return &ConfigError{Field: "generation.regenerate_attempts", Err: errors.New("must not be negative")}
	}
	if c.Retry.MaxAttempts < 1 {
		return &ConfigError{Field: "retry.max_attempts", Err: fmt.Errorf("must be at least 1, got %d", c.Retry.MaxAttempts)}
	}
	if c.Retry.Multiplier < 1 {
		return &ConfigError{Field: "retry.multiplier", Err: fmt.Errorf("must be at least 1, got %v", c.Retry.Multiplier)}
	}
	return nil
}

func validateProvider(field, name string, text bool) error {
	switch name {
	case ProviderOpenAI, ProviderGemini, ProviderStub:
		return nil
	case ProviderGroq:
		if text {
			return nil
		}
		return &ConfigError{Field: field, Err: errors.New("groq does not generate images")}
	}
	return &ConfigError{Field: field, Err: fmt.Errorf("unknown provider %q", name)}
}

// APIKey returns the key configured for a provider and the environment
// variable it is read from.
func (c *Config) APIKey(provider string) (string, string) {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey, "OPENAI_API_KEY"
	case ProviderGroq:
		return c.GroqAPIKey, "GROQ_API_KEY"
	case ProviderGemini:
		return c.GeminiAPIKey, "GEMINI_API_KEY"
	}
	return "", ""
}

func (c *Config) setAPIKey(provider, key string) {
	switch provider {
	case ProviderOpenAI:
		c.OpenAIAPIKey = key
	case ProviderGroq:
		c.GroqAPIKey = key
	case ProviderGemini:
		c.GeminiAPIKey = key
	}
}

func resolveCredentials(ctx context.Context, cfg *Config) error {
	for _, provider := range []string{cfg.Providers.Text.Name, cfg.Providers.Image.Name} {
		if provider == ProviderStub {
			continue
		}
		key, envVar := cfg.APIKey(provider)
		if key != "" {
			continue
		}
		if provider == ProviderGemini && cfg.GCPProject != "" {
			continue
		}

		if cfg.Secrets.GCPSecret == "" {
			return &CredentialError{Provider: provider, EnvVar: envVar, Err: errMissingKey}
		}

		slog.Debug("Reading API key from Secret Manager", "provider", provider, "secret", cfg.Secrets.GCPSecret)
		secret, err := accessSecret(ctx, cfg.Secrets.GCPSecret)
		if err != nil {
			return &CredentialError{Provider: provider, EnvVar: envVar, Err: fmt.Errorf("access secret: %w", err)}
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return &CredentialError{Provider: provider, EnvVar: envVar, Err: errMissingKey}
		}
		cfg.setAPIKey(provider, secret)
	}
	return nil
}
