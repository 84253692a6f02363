// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package debrief

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

const evaluationCriteria = `Evaluate this DEBRIEF on the following criteria:
1. Does it accurately summarize the key information from the input files?
2. Does it focus on the user's needs, progress, and actions (not Gemini's recommendations)?
3. Is it well-organized and easy to understand?
4. Does it capture important details without being overly verbose?

Provide:
- A score from 1-10 (10 being excellent)
- Reasoning for your score
- A list of specific issues (empty if none)`

var evaluationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score":     map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		"reasoning": map[string]any{"type": "string"},
		"issues": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []string{"score", "reasoning", "issues"},
}

// Evaluate scores a generated debrief against the transcripts it came from.
// contextNote tells the rater what the topic is about.
func Evaluate(ctx context.Context, gen Generator, model string, transcripts []string, debriefContent, contextNote string) (types.Evaluation, error) {
	prompt := buildEvaluationPrompt(transcripts, debriefContent, contextNote)

	raw, err := gen.GenerateJSON(ctx, model, prompt, evaluationSchema)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("evaluating debrief: %w", err)
	}

	var eval types.Evaluation
	if err := json.Unmarshal([]byte(raw), &eval); err != nil {
		return types.Evaluation{}, fmt.Errorf("parsing evaluation response: %w", err)
	}
	if eval.Score < 1 || eval.Score > 10 {
		return types.Evaluation{}, fmt.Errorf("evaluation score %d outside 1-10", eval.Score)
	}
	return eval, nil
}

func buildEvaluationPrompt(transcripts []string, debriefContent, contextNote string) string {
	var sb strings.Builder

	sb.WriteString("You are evaluating the quality of a DEBRIEF summary generated from conversation files.\n\n")
	fmt.Fprintf(&sb, "Context: %s\n\n", contextNote)

	sb.WriteString("Input files:\n")
	sb.WriteString(formatFiles(transcripts))
	sb.WriteString("\n")

	sb.WriteString("Generated DEBRIEF:\n")
	sb.WriteString(debriefContent)
	sb.WriteString("\n\n")

	sb.WriteString(evaluationCriteria)
	return sb.String()
}
