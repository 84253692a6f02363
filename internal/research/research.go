// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research turns debriefs into researched insights. It identifies
// open questions in a topic's debrief, batches the high-priority ones into a
// single deep-research interaction, and writes the findings to the topic's
// research artifact. Cross-topic analysis finds queries that bridge separate
// topics.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/internal/history"
	"github.com/pdiddy/debrief-engine/internal/poll"
	"github.com/pdiddy/debrief-engine/pkg/types"
)

// Generator produces schema-constrained JSON from a prompt. Satisfied by
// *gemini.Client.
type Generator interface {
	GenerateJSON(ctx context.Context, model, prompt string, schema map[string]any) (string, error)
}

// Researcher drives a deep-research query to completion. Satisfied by
// *poll.Poller.
type Researcher interface {
	Run(ctx context.Context, query string) (poll.Result, error)
}

// Recorder persists research run records. Satisfied by *history.Store.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Engine wires the research pipeline together. Gen identifies and analyzes,
// Res performs the actual research, and Recorder (optional) keeps the run
// history. A nil Logger disables logging.
type Engine struct {
	Gen      Generator
	Res      Researcher
	Recorder Recorder
	Config   types.ResearchConfig
	Logger   *zap.Logger
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// MalformedResponseError reports model output that failed the structured
// output contract. It is propagated, not retried: an ill-formed response to
// a schema-constrained request signals a contract problem, not a transient
// fault.
type MalformedResponseError struct {
	Detail string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Detail)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// validateTask rejects model-supplied task fields that break the schema
// contract. Out-of-range values are flagged, never silently coerced.
func validateTask(i int, query string, priority int) error {
	if strings.TrimSpace(query) == "" {
		return &MalformedResponseError{Detail: fmt.Sprintf("task %d has an empty query", i+1)}
	}
	if priority < 1 || priority > 10 {
		return &MalformedResponseError{Detail: fmt.Sprintf("task %d priority %d outside 1-10", i+1, priority)}
	}
	return nil
}
