// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the debrief-engine pipeline.
package types

// ResearchTaskType classifies why a research task was generated.
type ResearchTaskType string

const (
	// TaskGapFilling targets open questions or problems the user got stuck on.
	TaskGapFilling ResearchTaskType = "GapFilling"

	// TaskNoveltyCheck looks for updates on libraries, papers, or tools
	// mentioned in a debrief.
	TaskNoveltyCheck ResearchTaskType = "NoveltyCheck"

	// TaskCrossPollination bridges concepts between separate topics.
	TaskCrossPollination ResearchTaskType = "CrossPollination"
)

// ParseTaskType maps a model-supplied type string to a known
// ResearchTaskType. Unknown values normalize to TaskGapFilling so vocabulary
// drift in the model output cannot fail a whole batch.
func ParseTaskType(s string) ResearchTaskType {
	switch ResearchTaskType(s) {
	case TaskNoveltyCheck:
		return TaskNoveltyCheck
	case TaskCrossPollination:
		return TaskCrossPollination
	}
	return TaskGapFilling
}

// Label returns the human-readable form used in prompts and rendered output.
func (t ResearchTaskType) Label() string {
	switch t {
	case TaskNoveltyCheck:
		return "Novelty Check"
	case TaskCrossPollination:
		return "Cross-Pollination"
	}
	return "Gap Filling"
}

// ResearchTask is one research opportunity identified from a debrief.
// Tasks are immutable once created.
type ResearchTask struct {
	Type    ResearchTaskType `json:"task_type" yaml:"task_type"`
	Query   string           `json:"query" yaml:"query"`
	Context string           `json:"context" yaml:"context"`

	// Priority ranks importance from 1 (lowest) to 10 (highest).
	Priority int `json:"priority" yaml:"priority"`
}

// ResearchResult holds the outcome of one completed research batch.
type ResearchResult struct {
	// Task is the originating task, or a synthetic descriptor when several
	// tasks were batched into one request.
	Task ResearchTask `json:"task" yaml:"task"`

	Findings string `json:"findings" yaml:"findings"`

	// Confidence is a 1-10 score derived from the findings, not reported by
	// the remote agent.
	Confidence int `json:"confidence" yaml:"confidence"`

	// Sources lists cited URLs in first-seen order. Never empty: findings
	// with no inline citations carry a single sentinel entry.
	Sources []string `json:"sources" yaml:"sources"`

	// InteractionID correlates the result with the remote interaction that
	// produced it, for cost tracking and log correlation.
	InteractionID string `json:"interaction_id,omitempty" yaml:"interaction_id,omitempty"`
}
