// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// ErrEmptyBatch flags a batch call with no tasks. Callers filter before
// batching, so hitting this is a programming error, not a retryable state.
var ErrEmptyBatch = errors.New("research batch is empty")

// sourceSentinel stands in when the findings cite no URLs inline.
const sourceSentinel = "Deep Research synthesis (multiple sources)"

// ResearchBatch combines the tasks into one deep-research request and runs
// it to completion. The returned result carries a synthetic descriptor task
// covering the whole batch, extracted sources, and a length-based confidence
// estimate.
func (e *Engine) ResearchBatch(ctx context.Context, tasks []types.ResearchTask) (types.ResearchResult, error) {
	if len(tasks) == 0 {
		return types.ResearchResult{}, ErrEmptyBatch
	}

	e.logger().Info("starting batch research", zap.Int("tasks", len(tasks)))

	res, err := e.Res.Run(ctx, buildBatchQuery(tasks))
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("batch research: %w", err)
	}

	return types.ResearchResult{
		Task:          batchDescriptor(tasks),
		Findings:      res.Findings,
		Confidence:    estimateConfidence(res.Findings),
		Sources:       extractSources(res.Findings),
		InteractionID: res.InteractionID,
	}, nil
}

// ResearchOne runs a single task as a batch of one.
func (e *Engine) ResearchOne(ctx context.Context, task types.ResearchTask) (types.ResearchResult, error) {
	return e.ResearchBatch(ctx, []types.ResearchTask{task})
}

func buildBatchQuery(tasks []types.ResearchTask) string {
	var b strings.Builder
	b.WriteString("Please conduct comprehensive research on the following topics:\n\n")
	for i, task := range tasks {
		fmt.Fprintf(&b, "%d. **%s**\n   Query: %s\n   Context: %s\n\n",
			i+1, task.Type.Label(), task.Query, task.Context)
	}
	b.WriteString(`For each topic, provide:
1. Specific, actionable information and findings
2. Relevant details, solutions, or insights
3. Sources and citations where applicable
4. Any caveats or limitations

Organize your response with clear sections for each research topic.
Be thorough and evidence-based.`)
	return b.String()
}

// batchDescriptor builds the synthetic task standing for the whole batch.
// Its priority is the maximum across the batch so one urgent task is never
// diluted by averaging.
func batchDescriptor(tasks []types.ResearchTask) types.ResearchTask {
	queries := make([]string, len(tasks))
	maxPriority := 0
	for i, task := range tasks {
		queries[i] = task.Query
		if task.Priority > maxPriority {
			maxPriority = task.Priority
		}
	}
	return types.ResearchTask{
		Type:     types.TaskGapFilling,
		Query:    fmt.Sprintf("Batch research: %d tasks", len(tasks)),
		Context:  "Combined research for: " + strings.Join(queries, "; "),
		Priority: maxPriority,
	}
}

// extractSources pulls URLs out of the findings, in first-seen order with
// duplicates dropped. Trailing punctuation is trimmed so sentence-final URLs
// come out clean. Findings with no inline URLs get a sentinel entry; the
// source list is never empty.
func extractSources(findings string) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(findings) {
		if !strings.HasPrefix(word, "http://") && !strings.HasPrefix(word, "https://") {
			continue
		}
		url := strings.TrimRightFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '/' && r != ':'
		})
		if !seen[url] {
			seen[url] = true
			sources = append(sources, url)
		}
	}
	if len(sources) == 0 {
		sources = append(sources, sourceSentinel)
	}
	return sources
}

// estimateConfidence scores findings by sheer length. It measures verbosity,
// not correctness; the agent reports no confidence of its own, so this is a
// crude stand-in.
func estimateConfidence(findings string) int {
	switch n := len(findings); {
	case n >= 2000:
		return 9
	case n >= 1000:
		return 8
	case n >= 500:
		return 7
	case n >= 200:
		return 6
	default:
		return 5
	}
}
