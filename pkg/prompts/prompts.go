package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	Text  TextPrompts  `yaml:"text"`
	Image ImagePrompts `yaml:"image"`
	Check CheckPrompts `yaml:"check"`
}

type TextPrompts struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type ImagePrompts struct {
	User string `yaml:"user"`
}

type CheckPrompts struct {
	User string `yaml:"user"`
}

type TextParams struct {
	Tone               string
	Voice              string
	AvgSentenceLength  float64
	VocabularyRichness float64
	Keywords           []string
	PostType           string
	Platform           string
	TargetAudience     string
	ContentGoals       []string
	MaxLength          int
	Attempt            int
}

type ImageParams struct {
	Concepts    string
	Style       string
	Colors      []string
	Mood        string
	ImageStyle  string
	Composition string
}

var funcs = template.FuncMap{"join": strings.Join}

// Load returns the built-in prompts.
func Load() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}
	return &p, nil
}

// LoadFrom overlays the prompts in path on top of the built-in ones, so a file
// only needs the templates it changes.
func LoadFrom(path string) (*Prompts, error) {
	p, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func (p *Prompts) RenderTextSystem(params TextParams) (string, error) {
	return render(p.Text.System, params)
}

func (p *Prompts) RenderTextUser(params TextParams) (string, error) {
	return render(p.Text.User, params)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	return render(p.Image.User, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
