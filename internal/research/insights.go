// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"strings"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// insightsMarker heads the generated section. Its presence in an artifact
// means the topic has already been researched.
const insightsMarker = "## Research Insights"

// HasInsights reports whether content already carries a researched section.
func HasInsights(content string) bool {
	return strings.Contains(content, insightsMarker)
}

// FormatInsights renders research results as the markdown research artifact.
func FormatInsights(results []types.ResearchResult) string {
	var b strings.Builder
	b.WriteString(insightsMarker + "\n\n")
	b.WriteString("*The following insights were automatically researched based on open questions and topics in your conversations.*\n\n")

	for _, result := range results {
		fmt.Fprintf(&b, "### **%s** %s\n\n", result.Task.Type.Label(), result.Task.Query)
		fmt.Fprintf(&b, "**Context:** %s\n\n", result.Task.Context)
		fmt.Fprintf(&b, "%s\n\n", result.Findings)

		if len(result.Sources) > 0 {
			b.WriteString("**Sources:**\n")
			for _, source := range result.Sources {
				fmt.Fprintf(&b, "- %s\n", source)
			}
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "*Confidence: %d/10 | Priority: %d/10*\n\n",
			result.Confidence, result.Task.Priority)
	}

	return b.String()
}
