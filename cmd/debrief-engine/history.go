// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/debrief-engine/internal/history"
	"github.com/pdiddy/debrief-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past research runs (list, show, search, export)",
	Long: `History manages the local SQLite database of research runs. Every research
and crosstopic invocation records its runs here, including failed and timed
out ones, so past research can be audited and reused.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded research runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), runOptsFromFlags(cmd, nil))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunsOutput(runs, jsonOutput)
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one research run in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("ID:          %s\n", run.ID)
	fmt.Printf("Kind:        %s\n", run.Kind)
	if run.Topic != "" {
		fmt.Printf("Topic:       %s\n", run.Topic)
	}
	fmt.Printf("Status:      %s\n", run.Status)
	if run.InteractionID != "" {
		fmt.Printf("Interaction: %s\n", run.InteractionID)
	}
	fmt.Printf("Query:       %s\n", run.Query)
	fmt.Printf("Priority:    %d/10\n", run.Priority)
	if run.Confidence > 0 {
		fmt.Printf("Confidence:  %d/10\n", run.Confidence)
	}
	fmt.Printf("Started:     %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("Duration:    %s\n", run.Duration)
	if run.Error != "" {
		fmt.Printf("Error:       %s\n", run.Error)
	}
	if len(run.Sources) > 0 {
		fmt.Println("Sources:")
		for _, source := range run.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}
	if run.Findings != "" {
		fmt.Printf("\n%s\n", run.Findings)
	}
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Full-text search over run queries and findings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), runOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunsOutput(runs, jsonOutput)
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to YAML or JSON",
	Long: `Export writes the run history (or a filtered subset) next to the
database as export.yaml or export.json. Supports the same filter flags
as list.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := runOptsFromFlags(cmd, nil)

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), opts)
	case "json":
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func historyStore(cmd *cobra.Command) (*history.Store, error) {
	dir, _ := cmd.Flags().GetString("history-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return history.NewStore(types.HistoryConfig{Dir: dir, MaxResults: maxResults})
}

func runOptsFromFlags(cmd *cobra.Command, args []string) history.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	topic, _ := cmd.Flags().GetString("topic")
	kind, _ := cmd.Flags().GetString("kind")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	return history.QueryOptions{
		Query:      queryText,
		Topic:      topic,
		Kind:       kind,
		Status:     status,
		MaxResults: limit,
	}
}

func formatRunsOutput(runs []history.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-11s  %-12s  %s\n",
		"ID", "Started", "Status", "Kind", "Topic", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, run := range runs {
		topic := run.Topic
		if len(topic) > 12 {
			topic = topic[:9] + "..."
		}
		query := run.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-11s  %-12s  %s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Status,
			run.Kind, topic, query)
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("history-dir", "history", "directory holding the run history database")
	historyCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")

	// List flags.
	historyListCmd.Flags().String("query", "", "full-text search over queries and findings")
	historyListCmd.Flags().String("topic", "", "filter by topic name")
	historyListCmd.Flags().String("kind", "", "filter by run kind: topic or cross-topic")
	historyListCmd.Flags().String("status", "", "filter by status: completed, failed, or timeout")
	historyListCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	// Show flags.
	historyShowCmd.Flags().Bool("json", false, "output the run as JSON")

	// Search flags.
	historySearchCmd.Flags().String("query", "", "full-text search query (or pass as arguments)")
	historySearchCmd.Flags().String("topic", "", "filter by topic name")
	historySearchCmd.Flags().String("kind", "", "filter by run kind: topic or cross-topic")
	historySearchCmd.Flags().String("status", "", "filter by status: completed, failed, or timeout")
	historySearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	historySearchCmd.Flags().Bool("json", false, "output runs as JSON")

	// Export flags.
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	historyExportCmd.Flags().String("topic", "", "filter by topic name for partial export")
	historyExportCmd.Flags().String("kind", "", "filter by run kind for partial export")
	historyExportCmd.Flags().String("status", "", "filter by status for partial export")
	historyExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = all)")

	// Wire subcommands.
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
