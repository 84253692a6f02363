// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/debrief"
	"github.com/pdiddy/debrief-engine/internal/gemini"
)

var processCmd = &cobra.Command{
	Use:   "process <topic-dir>",
	Short: "Condense new transcripts into a topic's debrief",
	Long: `Process scans a topic directory for transcripts that have not been folded
into DEBRIEF.md yet, generates or updates the debrief, and renames processed
transcripts with a _read suffix so they are only consumed once.

With --all the argument is a data directory containing one subdirectory per
topic, and every topic is processed with bounded concurrency.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Bool("all", false, "treat the argument as a data directory and process every topic")
	processCmd.Flags().Int("concurrency", 4, "maximum topics processed at once with --all")
	processCmd.Flags().String("model", defaultModel, "AI model for debrief generation")
	processCmd.Flags().String("api-key", "", "Gemini API key (overrides .secrets/ and environment)")
	processCmd.Flags().Int("max-retries", 0, "retries for rate-limited API calls (0 = default)")

	rootCmd.AddCommand(processCmd)
}

func newGeminiClient(cmd *cobra.Command) (*gemini.Client, error) {
	flagKey, _ := cmd.Flags().GetString("api-key")
	apiKey, err := resolveAPIKey(flagKey)
	if err != nil {
		return nil, err
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	return &gemini.Client{APIKey: apiKey, MaxRetries: maxRetries}, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	client, err := newGeminiClient(cmd)
	if err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")
	all, _ := cmd.Flags().GetBool("all")

	if !all {
		updated, err := debrief.ProcessDir(context.Background(), client, model, args[0], os.Stdout)
		if err != nil {
			return err
		}
		if !updated {
			fmt.Println("No new files to process.")
		}
		return nil
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	summary, err := debrief.ProcessAll(context.Background(), client, model, args[0], concurrency, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\nupdated: %d, skipped: %d, failed: %d\n", summary.Updated, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d topic(s) failed processing", summary.Failed)
	}
	return nil
}
