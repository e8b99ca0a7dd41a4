package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"brandpost/internal/app"
	"brandpost/internal/app/model"
)

var errNoPosts = errors.New("no posts were generated")

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	result, err := app.NewPipeline(service).Run(ctx)
	if result != nil {
		printSummary(result)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run interrupted: %w", err)
		}
		return err
	}

	if result.Statistics.Succeeded == 0 {
		return errNoPosts
	}
	return nil
}

func printSummary(result *model.RunResult) {
	stats := result.Statistics

	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Run %s", result.RunID)))
	fmt.Printf("  Platform:     %s\n", result.Platform)
	fmt.Printf("  Requested:    %d\n", stats.Requested)
	fmt.Println(successStyle.Render(fmt.Sprintf("  Generated:    %d (%d with visuals)", stats.Succeeded, stats.PostsWithVisuals)))
	if stats.Failed > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("  Failed:       %d", stats.Failed)))
		for _, failure := range result.Failures {
			fmt.Println(warnStyle.Render(fmt.Sprintf("    post %d at %s: %s", failure.Index, failure.Stage, failure.Error)))
		}
	}
	if result.Aborted {
		fmt.Println(warnStyle.Render("  Run stopped before all posts were attempted"))
	}
	for _, post := range result.Posts {
		fmt.Println(infoStyle.Render(fmt.Sprintf("  #%d %s", post.Index, post.JSONPath)))
	}
	fmt.Printf("  Duration:     %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
}
