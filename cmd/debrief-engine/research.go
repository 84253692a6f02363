// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/history"
	"github.com/pdiddy/debrief-engine/internal/poll"
	"github.com/pdiddy/debrief-engine/internal/research"
	"github.com/pdiddy/debrief-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <data-dir> [topic]",
	Short: "Research a topic's open questions into RESEARCH.md",
	Long: `Research mines a topic's DEBRIEF.md for open questions, batches the
high-priority ones into a single deep-research interaction, and writes the
findings to the topic's RESEARCH.md. A topic whose RESEARCH.md already has
insights is skipped, so the command is safe to rerun.

With --all every topic under the data directory is researched with bounded
concurrency; the topic argument is then omitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("all", false, "research every topic under the data directory")
	researchCmd.Flags().Int("concurrency", 2, "maximum topics researched at once with --all")
	addResearchFlags(researchCmd, 6)

	rootCmd.AddCommand(researchCmd)
}

// addResearchFlags registers the flags shared by the research-driven
// commands. minPriority is the command's default priority bar.
func addResearchFlags(cmd *cobra.Command, minPriority int) {
	cmd.Flags().String("model", defaultModel, "AI model for task identification")
	cmd.Flags().String("agent", defaultAgent, "deep research agent identifier")
	cmd.Flags().String("api-key", "", "Gemini API key (overrides .secrets/ and environment)")
	cmd.Flags().Int("max-retries", 0, "retries for rate-limited API calls (0 = default)")
	cmd.Flags().Int("min-priority", minPriority, "lowest task priority worth researching")
	cmd.Flags().Duration("deadline", 0, "polling deadline per research interaction (default 20m)")
	cmd.Flags().String("history-dir", "history", "directory for the run history database (empty disables recording)")
}

// newResearchEngine builds the research engine from command flags. The
// returned cleanup closes the history store when one was opened.
func newResearchEngine(cmd *cobra.Command) (*research.Engine, func(), error) {
	client, err := newGeminiClient(cmd)
	if err != nil {
		return nil, nil, err
	}

	model, _ := cmd.Flags().GetString("model")
	agent, _ := cmd.Flags().GetString("agent")
	minPriority, _ := cmd.Flags().GetInt("min-priority")
	deadline, _ := cmd.Flags().GetDuration("deadline")

	cfg := types.ResearchConfig{
		AIConfig:    types.AIConfig{Model: model, APIKey: client.APIKey, MaxRetries: client.MaxRetries},
		Agent:       agent,
		Poll:        types.PollPolicy{MaxDuration: deadline},
		MinPriority: minPriority,
	}

	engine := &research.Engine{
		Gen:    client,
		Res:    poll.New(client, agent, cfg.Poll, logger),
		Config: cfg,
		Logger: logger,
	}

	cleanup := func() {}
	historyDir, _ := cmd.Flags().GetString("history-dir")
	if historyDir != "" {
		store, err := history.NewStore(types.HistoryConfig{Dir: historyDir})
		if err != nil {
			return nil, nil, err
		}
		engine.Recorder = store
		cleanup = func() { store.Close() }
	}

	return engine, cleanup, nil
}

func runResearch(cmd *cobra.Command, args []string) error {
	engine, cleanup, err := newResearchEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	all, _ := cmd.Flags().GetBool("all")
	if !all {
		if len(args) < 2 {
			return fmt.Errorf("provide a topic name, or use --all to research every topic")
		}
		dataDir, topic := args[0], args[1]
		start := time.Now()
		enhanced, err := engine.EnhanceTopic(context.Background(), filepath.Join(dataDir, topic), topic, os.Stdout)
		if err != nil {
			return err
		}
		if enhanced {
			fmt.Printf("research finished in %s\n", time.Since(start).Round(time.Second))
		}
		return nil
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	summary, err := engine.EnhanceAll(context.Background(), args[0], concurrency, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\nenhanced: %d, skipped: %d, failed: %d\n", summary.Enhanced, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d topic(s) failed research", summary.Failed)
	}
	return nil
}
