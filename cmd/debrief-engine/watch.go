// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/debrief"
	"github.com/pdiddy/debrief-engine/internal/topics"
)

var watchCmd = &cobra.Command{
	Use:   "watch <data-dir>",
	Short: "Keep debriefs current as new transcripts land",
	Long: `Watch monitors the data directory for new transcript files and reprocesses
a topic's debrief once its directory has been quiet for the debounce window.
Topic directories created while watching are picked up automatically.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 2*time.Second, "quiet period before a changed topic is reprocessed")
	watchCmd.Flags().String("model", defaultModel, "AI model for debrief generation")
	watchCmd.Flags().String("api-key", "", "Gemini API key (overrides .secrets/ and environment)")
	watchCmd.Flags().Int("max-retries", 0, "retries for rate-limited API calls (0 = default)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := newGeminiClient(cmd)
	if err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	watcher := &topics.Watcher{
		Process: func(ctx context.Context, topicDir string) {
			updated, err := debrief.ProcessDir(ctx, client, model, topicDir, os.Stdout)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed  %s: %v\n", topicDir, err)
				return
			}
			if updated {
				fmt.Printf("updated %s\n", topicDir)
			}
		},
		Debounce: debounce,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %s (ctrl-c to stop)\n", args[0])
	if err := watcher.Run(ctx, args[0]); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("watch stopped")
	return nil
}
