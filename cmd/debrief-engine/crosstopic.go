// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/research"
)

var crosstopicCmd = &cobra.Command{
	Use:   "crosstopic <data-dir>",
	Short: "Find and research connections between topics",
	Long: `Crosstopic loads every topic's debrief, asks the model for research queries
that bridge separate topics, and researches the high-priority ones. Results
are printed; they belong to no single topic, so no RESEARCH.md is written.

At least two topics with substantive debriefs are required.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrosstopic,
}

func init() {
	addResearchFlags(crosstopicCmd, 7)

	rootCmd.AddCommand(crosstopicCmd)
}

func runCrosstopic(cmd *cobra.Command, args []string) error {
	engine, cleanup, err := newResearchEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// The priority bar set on this command gates auto-research, not the
	// single-topic pipeline.
	engine.Config.MinCrossTopicPriority = engine.Config.MinPriority

	results, err := engine.ResearchConnections(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Println()
		fmt.Print(research.FormatInsights(results))
	}
	return nil
}
