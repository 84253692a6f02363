// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package debrief

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/debrief-engine/internal/topics"
)

// Summary holds counts from a multi-topic processing run.
type Summary struct {
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of topics visited.
func (s Summary) Total() int {
	return s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any topic failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// ProcessDir folds a topic's unread transcripts into its debrief and marks
// them read. The returned bool reports whether the debrief was rewritten;
// false with a nil error means there was nothing unread and no model call
// was made. The bool can be true alongside an error when the debrief was
// written but some transcripts could not be marked read.
func ProcessDir(ctx context.Context, gen Generator, model, dir string, w io.Writer) (bool, error) {
	scan, err := topics.Scan(dir)
	if err != nil {
		return false, err
	}
	if len(scan.Transcripts) == 0 {
		return false, nil
	}

	updated, err := Generate(ctx, gen, model, scan.Debrief, scan.Transcripts)
	if err != nil {
		return false, err
	}

	if err := topics.WriteDebrief(dir, updated); err != nil {
		return false, err
	}
	if err := topics.MarkRead(scan.UnreadPaths, w); err != nil {
		return true, fmt.Errorf("marking transcripts read: %w", err)
	}
	return true, nil
}

// ProcessAll runs ProcessDir over every topic under dataDir, at most
// concurrency topics at a time. Topic failures are reported on w and
// counted rather than aborting the run.
func ProcessAll(ctx context.Context, gen Generator, model, dataDir string, concurrency int, w io.Writer) (Summary, error) {
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
			updated, err := ProcessDir(ctx, gen, model, topic.Dir, out)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				fmt.Fprintf(out, "failed  %s: %v\n", topic.Name, err)
				summary.Failed++
			case updated:
				fmt.Fprintf(out, "updated %s\n", topic.Name)
				summary.Updated++
			default:
				fmt.Fprintf(out, "skipped %s\n", topic.Name)
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

// syncWriter serializes progress lines from concurrent topic runs.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
