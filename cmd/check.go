package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"brandpost/internal/app"
	"brandpost/internal/llm"
	"brandpost/pkg/prompts"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the text provider credentials",
	Long:  `Send a one-line completion to the configured text provider to confirm the API key works.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := prompts.LoadFrom(cfg.PromptsFile)
	if err != nil {
		return err
	}

	provider, err := app.NewTextProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	var reply string
	title := fmt.Sprintf("Checking %s (%s)", provider.Name(), cfg.Providers.Text.Model)
	err = runWithSpinner(title, func() error {
		var genErr error
		reply, genErr = provider.GenerateText(cmd.Context(), llm.TextRequest{
			Prompt:    p.Check.User,
			MaxTokens: 10,
		})
		return genErr
	})
	if err != nil {
		return fmt.Errorf("check %s: %w", provider.Name(), err)
	}

	fmt.Println(infoStyle.Render("Response: " + strings.TrimSpace(reply)))
	return nil
}
