// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

var connectionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tasks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":    map[string]any{"type": "string"},
					"context":  map[string]any{"type": "string"},
					"priority": map[string]any{"type": "integer"},
				},
				"required": []string{"query", "context", "priority"},
			},
		},
	},
	"required": []string{"tasks"},
}

// AnalyzeCrossTopics asks the model for research queries that bridge the
// given debriefs. Fewer than two topics cannot connect to anything, so the
// call returns empty without touching the model. Every returned task is
// cross-pollination by construction.
func (e *Engine) AnalyzeCrossTopics(ctx context.Context, debriefs map[string]string) ([]types.ResearchTask, error) {
	if len(debriefs) < 2 {
		return nil, nil
	}

	names := make([]string, 0, len(debriefs))
	for name := range debriefs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("You are analyzing multiple conversation topics to find valuable connections.\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "## Topic: %s\n%s\n\n", name, debriefs[name])
	}
	b.WriteString(`Identify 3-5 high-value cross-pollination opportunities where:
- Concepts from one topic could inform or solve problems in another
- Technologies discussed separately could be combined
- Similar patterns or challenges appear across topics

For each opportunity, provide a specific research query that would bridge the topics.`)

	raw, err := e.Gen.GenerateJSON(ctx, e.Config.Model, b.String(), connectionsSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Tasks []rawTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &MalformedResponseError{Detail: "invalid connection JSON", Err: err}
	}

	tasks := make([]types.ResearchTask, 0, len(parsed.Tasks))
	for i, rt := range parsed.Tasks {
		if err := validateTask(i, rt.Query, rt.Priority); err != nil {
			return nil, err
		}
		tasks = append(tasks, types.ResearchTask{
			Type:     types.TaskCrossPollination,
			Query:    rt.Query,
			Context:  rt.Context,
			Priority: rt.Priority,
		})
	}

	e.logger().Info("analyzed cross-topic connections",
		zap.Int("topics", len(debriefs)),
		zap.Int("tasks", len(tasks)))
	return tasks, nil
}
