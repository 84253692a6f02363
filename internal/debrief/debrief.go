// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package debrief turns raw conversation transcripts into a running
// per-topic summary. A debrief captures what the user needs and has done so
// a future session can pick the topic up without replaying every transcript.
package debrief

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// instructions is appended to every generation prompt. It keeps the model
// focused on the user's side of the conversations rather than summarizing
// its own past advice.
const instructions = `IMPORTANT:
- Your goal is to summarize the user's needs, current progress or state, and anything they might have done or tried in the course of the conversation.
- Your goal is NOT to provide a summary of what Gemini has recommended - only include details of Gemini's responses when they help explain what the user did in the context of the conversation.
- The purpose of this debrief is to catch future Gemini models up on what the user needs and has done, so the user can ask follow up questions and Gemini can make informed responses.`

// debriefSchema constrains the model to the structured debrief shape.
var debriefSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"header": map[string]any{"type": "string"},
					"text":   map[string]any{"type": "string"},
				},
				"required": []string{"header", "text"},
			},
		},
	},
	"required": []string{"items"},
}

// Generator abstracts the model call so tests can supply a mock. Satisfied
// by *gemini.Client.
type Generator interface {
	GenerateJSON(ctx context.Context, model, prompt string, schema map[string]any) (string, error)
}

// Generate produces an updated debrief in markdown from the existing debrief
// and the new transcripts. An existing debrief that is empty or holds only
// the stub heading takes the fresh-debrief prompt; otherwise the model is
// asked to rewrite sections in place.
func Generate(ctx context.Context, gen Generator, model, existing string, transcripts []string) (string, error) {
	prompt := buildPrompt(existing, transcripts)

	raw, err := gen.GenerateJSON(ctx, model, prompt, debriefSchema)
	if err != nil {
		return "", fmt.Errorf("generating debrief: %w", err)
	}

	var d types.Debrief
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return "", fmt.Errorf("parsing debrief response: %w", err)
	}

	return formatMarkdown(d), nil
}

// hasContent reports whether existing holds more than the bare stub heading
// written when a topic directory is first scanned.
func hasContent(existing string) bool {
	trimmed := strings.TrimSpace(existing)
	return trimmed != "" && trimmed != "# Debrief"
}

func buildPrompt(existing string, transcripts []string) string {
	var sb strings.Builder

	if hasContent(existing) {
		sb.WriteString("Here's the current debrief of the user's conversations with Gemini:\n\n")
		sb.WriteString(existing)
		sb.WriteString("\n\n")

		sb.WriteString("Here are the updates to the user's conversations since this debrief was generated. Note that some of them might contain full conversations, where previous steps in the conversation have already been incorporated into the debrief.\n\n")
		sb.WriteString(formatFiles(transcripts))
		sb.WriteString("\n\n")

		sb.WriteString("Please rewrite sections of the debrief if there is new information which clarifies, contradicts, or contains important additional details. If you have new information that doesn't fit into the existing debrief, you can add a new section.\n\n")
		sb.WriteString("To update an existing section, repeat the exact header of that section and provide the updated text. To add a new section, create a new header and text. Keep sections that don't need updates unchanged by repeating their header and original text.\n\n")
	} else {
		sb.WriteString("Here are the user's conversations with Gemini about this topic.\n\n")
		sb.WriteString(formatFiles(transcripts))
		sb.WriteString("\n\n")

		sb.WriteString("Your job is to provide a debrief on the user's conversations with Gemini on this topic.\n\n")
	}

	sb.WriteString(instructions)
	return sb.String()
}

// formatFiles renders transcripts as a numbered block for the prompt.
func formatFiles(files []string) string {
	parts := make([]string, len(files))
	for i, content := range files {
		parts[i] = fmt.Sprintf("File %d:\n%s\n", i+1, content)
	}
	return strings.Join(parts, "\n")
}

// formatMarkdown renders the structured debrief as markdown sections.
func formatMarkdown(d types.Debrief) string {
	parts := make([]string, len(d.Items))
	for i, item := range d.Items {
		parts[i] = fmt.Sprintf("### %s\n\n%s\n", item.Header, item.Text)
	}
	return strings.Join(parts, "\n")
}
