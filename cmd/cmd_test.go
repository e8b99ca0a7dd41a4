package cmd

import (
	"strings"
	"testing"

	"brandpost/pkg/config"
)

func TestPlatformTable(t *testing.T) {
	out := platformTable()
	for _, want := range []string{"instagram", "1080x1080", "twitter", "280", "linkedin", "1200x627"} {
		if !strings.Contains(out, want) {
			t.Errorf("platform table missing %q:\n%s", want, out)
		}
	}
}

func TestStarterConfig(t *testing.T) {
	answers := &setupAnswers{
		textProvider:  config.ProviderGroq,
		imageProvider: config.ProviderStub,
		platform:      "twitter",
		numPosts:      "5",
		tone:          "casual",
		keys:          map[string]string{"GROQ_API_KEY": "k"},
	}

	cfg := starterConfig(answers)
	if cfg.GenerationParams.NumPosts != 5 || cfg.GenerationParams.Platform != "twitter" {
		t.Errorf("GenerationParams = %+v", cfg.GenerationParams)
	}
	if cfg.Providers.Text.Name != config.ProviderGroq || cfg.Providers.Image.Name != config.ProviderStub {
		t.Errorf("Providers = %+v", cfg.Providers)
	}
	if cfg.Providers.Text.Temperature == 0 || cfg.Providers.Text.MaxTokens == 0 {
		t.Errorf("Text = %+v, want numeric defaults kept", cfg.Providers.Text)
	}
	if cfg.Secrets.File != defaultSecretsFile {
		t.Errorf("Secrets.File = %q, want %q", cfg.Secrets.File, defaultSecretsFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"3", false},
		{" 10 ", false},
		{"0", true},
		{"-1", true},
		{"many", true},
	}

	for _, tt := range tests {
		if err := positiveInt(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("positiveInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
