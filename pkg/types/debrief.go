// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DebriefItem is one titled section of a topic debrief.
type DebriefItem struct {
	Header string `json:"header" yaml:"header"`
	Text   string `json:"text" yaml:"text"`
}

// Debrief is the structured form of a topic debrief as returned by the model
// before it is rendered to markdown.
type Debrief struct {
	Items []DebriefItem `json:"items" yaml:"items"`
}

// Evaluation is an automated quality assessment of a generated debrief.
type Evaluation struct {
	// Score grades the debrief from 1 (poor) to 10 (excellent).
	Score     int      `json:"score" yaml:"score"`
	Reasoning string   `json:"reasoning" yaml:"reasoning"`
	Issues    []string `json:"issues" yaml:"issues"`
}
