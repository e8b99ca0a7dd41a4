package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"brandpost/pkg/config"
)

var (
	verbose     bool
	configPath  string
	secretsPath string
)

var rootCmd = &cobra.Command{
	Use:   "brandpost",
	Short: "Generate on-brand social media posts",
	Long: `Brandpost learns a brand's voice from sample posts and generates new
platform-ready posts, each with a matching image sized for the target platform.`,
	SilenceUsage: true,
	RunE:         runGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&secretsPath, "secrets", "", "Path to a dotenv file with API keys (default from config, then config.env)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Context(), config.Options{
		Path:        configPath,
		SecretsFile: secretsPath,
	})
}
