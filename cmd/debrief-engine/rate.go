// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/debrief"
	"github.com/pdiddy/debrief-engine/internal/topics"
)

var rateCmd = &cobra.Command{
	Use:   "rate <topic-dir>",
	Short: "Score a topic's debrief against its source transcripts",
	Long: `Rate evaluates how well DEBRIEF.md captures the topic's transcripts,
including ones already marked read. The model returns a 1-10 score with
reasoning and specific issues found.`,
	Args: cobra.ExactArgs(1),
	RunE: runRate,
}

func init() {
	rateCmd.Flags().String("model", defaultModel, "AI model for evaluation")
	rateCmd.Flags().String("api-key", "", "Gemini API key (overrides .secrets/ and environment)")
	rateCmd.Flags().Int("max-retries", 0, "retries for rate-limited API calls (0 = default)")
	rateCmd.Flags().Bool("json", false, "output the evaluation as JSON")

	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	client, err := newGeminiClient(cmd)
	if err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")

	topicDir := args[0]
	debriefContent, err := topics.ReadDebrief(topicDir)
	if err != nil {
		return err
	}
	transcripts, err := topics.ReadAllTranscripts(topicDir)
	if err != nil {
		return err
	}
	if len(transcripts) == 0 {
		return fmt.Errorf("no transcripts in %s to rate against", topicDir)
	}

	contextNote := fmt.Sprintf("topic %s", filepath.Base(topicDir))
	eval, err := debrief.Evaluate(context.Background(), client, model, transcripts, debriefContent, contextNote)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	fmt.Printf("Score: %d/10\n\n", eval.Score)
	fmt.Printf("Reasoning:\n%s\n", eval.Reasoning)
	if len(eval.Issues) > 0 {
		fmt.Println("\nIssues:")
		for _, issue := range eval.Issues {
			fmt.Printf("- %s\n", issue)
		}
	}
	return nil
}
