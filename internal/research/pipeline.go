// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/debrief-engine/internal/history"
	"github.com/pdiddy/debrief-engine/internal/poll"
	"github.com/pdiddy/debrief-engine/internal/topics"
	"github.com/pdiddy/debrief-engine/pkg/types"
)

// Summary counts per-topic outcomes of a bulk research run.
type Summary struct {
	Enhanced int
	Skipped  int
	Failed   int
}

// Total returns the number of topics visited.
func (s Summary) Total() int {
	return s.Enhanced + s.Skipped + s.Failed
}

// HasFailures reports whether any topic failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// EnhanceTopic researches a topic's debrief and writes the findings to the
// topic's research artifact. Returns false when nothing was done: the
// artifact already has insights, the debrief yields no tasks, or none clear
// the priority bar. The artifact is only written after a fully successful
// batch, so a rerun after failure starts clean.
func (e *Engine) EnhanceTopic(ctx context.Context, topicDir, topic string, w io.Writer) (bool, error) {
	debriefContent, err := topics.ReadDebrief(topicDir)
	if err != nil {
		return false, err
	}

	existing, err := topics.ReadResearch(topicDir)
	if err != nil {
		return false, err
	}
	if HasInsights(existing) {
		fmt.Fprintf(w, "%s already has research insights\n", topic)
		return false, nil
	}

	tasks, err := e.IdentifyTasks(ctx, debriefContent, topic)
	if err != nil {
		return false, err
	}
	if len(tasks) == 0 {
		fmt.Fprintf(w, "%s: no research tasks identified\n", topic)
		return false, nil
	}

	batch := filterByPriority(tasks, e.minPriority())
	if len(batch) == 0 {
		fmt.Fprintf(w, "%s: no tasks at or above priority %d\n", topic, e.minPriority())
		return false, nil
	}
	fmt.Fprintf(w, "%s: researching %d of %d task(s)\n", topic, len(batch), len(tasks))

	started := time.Now()
	result, err := e.ResearchBatch(ctx, batch)
	if err != nil {
		e.recordFailure(ctx, topic, history.KindTopic, batchDescriptor(batch), started, err)
		return false, err
	}
	e.recordRun(ctx, history.Run{
		Topic:         topic,
		Kind:          history.KindTopic,
		InteractionID: result.InteractionID,
		Status:        history.StatusCompleted,
		Query:         result.Task.Query,
		Findings:      result.Findings,
		Confidence:    result.Confidence,
		Priority:      result.Task.Priority,
		Sources:       result.Sources,
		StartedAt:     started,
		Duration:      time.Since(started),
	})

	if err := topics.WriteResearch(topicDir, FormatInsights([]types.ResearchResult{result})); err != nil {
		return false, err
	}
	fmt.Fprintf(w, "%s: wrote research insights (confidence %d/10)\n", topic, result.Confidence)
	return true, nil
}

// EnhanceAll researches every topic under dataDir, up to concurrency topics
// at a time. Failures are reported per topic and counted, not fatal.
func (e *Engine) EnhanceAll(ctx context.Context, dataDir string, concurrency int, w io.Writer) (Summary, error) {
	list, err := topics.List(dataDir)
	if err != nil {
		return Summary{}, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	out := &syncWriter{w: w}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, topic := range list {
		topic := topic
		g.Go(func() error {
			enhanced, err := e.EnhanceTopic(ctx, topic.Dir, topic.Name, out)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				fmt.Fprintf(out, "failed  %s: %v\n", topic.Name, err)
				summary.Failed++
			case enhanced:
				summary.Enhanced++
			default:
				summary.Skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// ResearchConnections finds cross-topic research opportunities across all
// debriefs under dataDir and researches the high-priority ones, each as a
// batch of one. A failed task is reported and skipped so the rest still run.
func (e *Engine) ResearchConnections(ctx context.Context, dataDir string, w io.Writer) ([]types.ResearchResult, error) {
	debriefs, err := topics.LoadDebriefs(dataDir)
	if err != nil {
		return nil, err
	}

	tasks, err := e.AnalyzeCrossTopics(ctx, debriefs)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no cross-pollination opportunities found")
		return nil, nil
	}

	fmt.Fprintf(w, "found %d cross-pollination opportunities:\n", len(tasks))
	for i, task := range tasks {
		fmt.Fprintf(w, "%d. %s (priority %d/10)\n   %s\n", i+1, task.Query, task.Priority, task.Context)
	}

	high := filterByPriority(tasks, e.minCrossTopicPriority())
	if len(high) == 0 {
		fmt.Fprintf(w, "no connections at or above priority %d\n", e.minCrossTopicPriority())
		return nil, nil
	}
	fmt.Fprintf(w, "researching %d high-priority connection(s)\n", len(high))

	var results []types.ResearchResult
	for _, task := range high {
		started := time.Now()
		result, err := e.ResearchOne(ctx, task)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", task.Query, err)
			e.recordFailure(ctx, "", history.KindCrossTopic, task, started, err)
			continue
		}
		e.recordRun(ctx, history.Run{
			Kind:          history.KindCrossTopic,
			InteractionID: result.InteractionID,
			Status:        history.StatusCompleted,
			Query:         task.Query,
			Findings:      result.Findings,
			Confidence:    result.Confidence,
			Priority:      task.Priority,
			Sources:       result.Sources,
			StartedAt:     started,
			Duration:      time.Since(started),
		})
		fmt.Fprintf(w, "done    %s (confidence %d/10)\n", task.Query, result.Confidence)
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) minPriority() int {
	if e.Config.MinPriority > 0 {
		return e.Config.MinPriority
	}
	return 6
}

func (e *Engine) minCrossTopicPriority() int {
	if e.Config.MinCrossTopicPriority > 0 {
		return e.Config.MinCrossTopicPriority
	}
	return 7
}

func filterByPriority(tasks []types.ResearchTask, min int) []types.ResearchTask {
	var kept []types.ResearchTask
	for _, task := range tasks {
		if task.Priority >= min {
			kept = append(kept, task)
		}
	}
	return kept
}

// recordRun persists a run record when a history store is wired. Recording
// is best effort: a store failure is logged, never surfaced, because the
// research result itself is already in hand.
func (e *Engine) recordRun(ctx context.Context, run history.Run) {
	if e.Recorder == nil {
		return
	}
	if err := e.Recorder.Record(ctx, run); err != nil {
		e.logger().Warn("recording research run failed", zap.Error(err))
	}
}

func (e *Engine) recordFailure(ctx context.Context, topic, kind string, task types.ResearchTask, started time.Time, cause error) {
	run := history.Run{
		Topic:     topic,
		Kind:      kind,
		Status:    history.StatusFailed,
		Query:     task.Query,
		Priority:  task.Priority,
		StartedAt: started,
		Duration:  time.Since(started),
		Error:     cause.Error(),
	}
	var pollErr *poll.Error
	if errors.As(cause, &pollErr) {
		run.InteractionID = pollErr.InteractionID
		if pollErr.Reason == poll.ReasonTimeout {
			run.Status = history.StatusTimeout
		}
	}
	e.recordRun(ctx, run)
}

// syncWriter serializes writes from concurrent topic workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}
