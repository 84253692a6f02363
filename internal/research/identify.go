// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

var identifyPromptTmpl = template.Must(template.New("identify").Parse(`You are analyzing a debrief of conversations to identify research opportunities.

Topic: {{.Topic}}

Debrief Content:
{{.Debrief}}

Your task is to identify:
1. **Open Questions/Gaps**: Unresolved questions, errors the user encountered, or topics they were exploring but got stuck on
2. **Topics for Updates**: Specific libraries, frameworks, papers, or technologies mentioned that might have updates
3. **Cross-Topic Connections**: Themes or technologies that could benefit from research connecting different areas

For each research opportunity, provide:
- task_type: "GapFilling", "NoveltyCheck", or "CrossPollination"
- query: A specific, actionable search query
- context: Brief context about why this research would be valuable
- priority: 1-10 (higher = more important/urgent)

Only suggest high-value research tasks. Aim for 3-7 tasks maximum.`))

var tasksSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tasks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_type": map[string]any{
						"type": "string",
						"enum": []string{"GapFilling", "NoveltyCheck", "CrossPollination"},
					},
					"query":    map[string]any{"type": "string"},
					"context":  map[string]any{"type": "string"},
					"priority": map[string]any{"type": "integer"},
				},
				"required": []string{"task_type", "query", "context", "priority"},
			},
		},
	},
	"required": []string{"tasks"},
}

// rawTask carries the model's task fields before validation. Type is kept as
// a string so unknown labels can be normalized instead of failing decode.
type rawTask struct {
	Type     string `json:"task_type"`
	Query    string `json:"query"`
	Context  string `json:"context"`
	Priority int    `json:"priority"`
}

// IdentifyTasks asks the model to mine a topic's debrief for research
// opportunities. Unknown task types are normalized to gap filling; empty
// queries and out-of-range priorities are contract violations.
func (e *Engine) IdentifyTasks(ctx context.Context, debriefContent, topic string) ([]types.ResearchTask, error) {
	var prompt strings.Builder
	if err := identifyPromptTmpl.Execute(&prompt, struct {
		Topic   string
		Debrief string
	}{Topic: topic, Debrief: debriefContent}); err != nil {
		return nil, err
	}

	raw, err := e.Gen.GenerateJSON(ctx, e.Config.Model, prompt.String(), tasksSchema)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Tasks []rawTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &MalformedResponseError{Detail: "invalid task JSON", Err: err}
	}

	tasks := make([]types.ResearchTask, 0, len(parsed.Tasks))
	for i, rt := range parsed.Tasks {
		if err := validateTask(i, rt.Query, rt.Priority); err != nil {
			return nil, err
		}
		tasks = append(tasks, types.ResearchTask{
			Type:     types.ParseTaskType(rt.Type),
			Query:    rt.Query,
			Context:  rt.Context,
			Priority: rt.Priority,
		})
	}

	e.logger().Info("identified research tasks",
		zap.String("topic", topic),
		zap.Int("count", len(tasks)))
	return tasks, nil
}
