package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"brandpost/internal/platform"
	"brandpost/pkg/config"
)

const defaultSecretsFile = "config.env"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Brandpost",
	Long:  `Choose providers, enter API keys and write config.env and a starter config.yaml.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

type setupAnswers struct {
	textProvider  string
	imageProvider string
	platform      string
	numPosts      string
	tone          string
	keys          map[string]string
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Brandpost Setup"))

	answers := &setupAnswers{keys: make(map[string]string)}

	steps := []struct {
		name string
		fn   func(*setupAnswers) error
	}{
		{"Choosing providers", chooseProviders},
		{"Entering API keys", configureKeys},
		{"Choosing defaults", chooseDefaults},
		{"Writing secrets", writeSecretsFile},
		{"Writing config", writeConfigFile},
	}

	for _, step := range steps {
		if err := step.fn(answers); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(step.name), err)
		}
	}

	printNextSteps()
	return nil
}

func chooseProviders(answers *setupAnswers) error {
	textOptions := []huh.Option[string]{
		huh.NewOption("OpenAI", config.ProviderOpenAI),
		huh.NewOption("Groq", config.ProviderGroq),
		huh.NewOption("Gemini", config.ProviderGemini),
		huh.NewOption("Offline stub", config.ProviderStub),
	}
	imageOptions := []huh.Option[string]{
		huh.NewOption("OpenAI (DALL-E)", config.ProviderOpenAI),
		huh.NewOption("Gemini (Imagen)", config.ProviderGemini),
		huh.NewOption("Offline stub", config.ProviderStub),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Text provider").
				Options(textOptions...).
				Value(&answers.textProvider),
			huh.NewSelect[string]().
				Title("Image provider").
				Options(imageOptions...).
				Value(&answers.imageProvider),
		),
	).Run()
}

var keyHelp = map[string]string{
	"OPENAI_API_KEY": "https://platform.openai.com/api-keys",
	"GROQ_API_KEY":   "https://console.groq.com/keys",
	"GEMINI_API_KEY": "https://aistudio.google.com/apikey",
}

func configureKeys(answers *setupAnswers) error {
	cfg := config.Default()

	var envVars []string
	for _, provider := range []string{answers.textProvider, answers.imageProvider} {
		_, envVar := cfg.APIKey(provider)
		if envVar == "" || answers.keys[envVar] != "" || containsString(envVars, envVar) {
			continue
		}
		envVars = append(envVars, envVar)
	}

	if len(envVars) == 0 {
		fmt.Println(infoStyle.Render("No API keys needed for the offline stub"))
		return nil
	}

	values := make([]string, len(envVars))
	fields := make([]huh.Field, len(envVars))
	for i, envVar := range envVars {
		fields[i] = huh.NewInput().
			Title(envVar).
			Description(keyHelp[envVar]).
			EchoMode(huh.EchoModePassword).
			Value(&values[i]).
			Validate(required(envVar))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	for i, envVar := range envVars {
		answers.keys[envVar] = strings.TrimSpace(values[i])
	}
	return nil
}

func chooseDefaults(answers *setupAnswers) error {
	platformOptions := make([]huh.Option[string], 0, len(platform.Names()))
	for _, name := range platform.Names() {
		platformOptions = append(platformOptions, huh.NewOption(name, name))
	}

	answers.numPosts = "2"
	answers.tone = "professional"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Target platform").
				Options(platformOptions...).
				Value(&answers.platform),
			huh.NewInput().
				Title("Posts per run").
				Value(&answers.numPosts).
				Validate(positiveInt),
			huh.NewSelect[string]().
				Title("Fallback brand tone").
				Description("Used when the sample posts carry no clear tone").
				Options(huh.NewOptions("professional", "casual", "formal", "friendly")...).
				Value(&answers.tone),
		),
	).Run()
}

func writeSecretsFile(answers *setupAnswers) error {
	if len(answers.keys) == 0 {
		return nil
	}

	ok, err := confirmOverwrite(defaultSecretsFile)
	if err != nil || !ok {
		return err
	}

	if err := godotenv.Write(answers.keys, defaultSecretsFile); err != nil {
		return err
	}
	if err := os.Chmod(defaultSecretsFile, 0600); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created " + defaultSecretsFile))
	return nil
}

func writeConfigFile(answers *setupAnswers) error {
	ok, err := confirmOverwrite(config.DefaultConfigPath)
	if err != nil || !ok {
		return err
	}

	cfg := starterConfig(answers)

	var data []byte
	err = runWithSpinner("Writing "+config.DefaultConfigPath, func() error {
		var marshalErr error
		data, marshalErr = yaml.Marshal(cfg)
		if marshalErr != nil {
			return marshalErr
		}
		return os.WriteFile(config.DefaultConfigPath, data, 0644)
	})
	return err
}

func starterConfig(answers *setupAnswers) *config.Config {
	cfg := config.Default()
	// Models differ per provider and are filled in again on load.
	cfg.Providers.Text.Name, cfg.Providers.Text.Model = answers.textProvider, ""
	cfg.Providers.Image.Name, cfg.Providers.Image.Model = answers.imageProvider, ""
	cfg.GenerationParams.Platform = answers.platform
	cfg.BrandGuidelines.Tone = answers.tone
	if n, err := strconv.Atoi(answers.numPosts); err == nil {
		cfg.GenerationParams.NumPosts = n
	}
	if len(answers.keys) > 0 {
		cfg.Secrets.File = defaultSecretsFile
	}
	return cfg
}

func confirmOverwrite(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return true, nil
	}

	var overwrite bool
	if err := huh.NewConfirm().
		Title(fmt.Sprintf("Found existing %s", path)).
		Description("Overwrite?").
		Value(&overwrite).
		Run(); err != nil {
		return false, err
	}
	if !overwrite {
		fmt.Println(infoStyle.Render("Kept existing " + path))
	}
	return overwrite, nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit brand_samples in config.yaml (or point samples_file at your posts)")
	fmt.Println("  2. Run: brandpost check")
	fmt.Println("  3. Run: brandpost")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number")
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
