// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// fakeClient replays a scripted sequence of interaction statuses. Once the
// script runs out the last entry repeats, which models an interaction stuck
// in its final reported state.
type fakeClient struct {
	createResult types.Interaction
	createErr    error
	script       []types.Interaction
	getErr       error

	getCalls  int
	cancelled []string
	cancelErr error
}

func (f *fakeClient) CreateInteraction(_ context.Context, _, _ string) (types.Interaction, error) {
	if f.createErr != nil {
		return types.Interaction{}, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeClient) GetInteraction(_ context.Context, id string) (types.Interaction, error) {
	if f.getErr != nil {
		return types.Interaction{}, f.getErr
	}
	i := f.getCalls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.getCalls++
	got := f.script[i]
	got.ID = id
	return got, nil
}

func (f *fakeClient) CancelInteraction(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr
}

// stubSleep replaces the backoff sleep with a recorder so tests can assert
// the delay sequence without waiting it out.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func inProgress() types.Interaction {
	return types.Interaction{Status: types.StatusInProgress}
}

func completed(text string) types.Interaction {
	return types.Interaction{Status: types.StatusCompleted, Text: text}
}

func TestRunCompletes(t *testing.T) {
	delays := stubSleep(t)
	client := &fakeClient{
		createResult: types.Interaction{ID: "int-1", Status: types.StatusInProgress},
		script:       []types.Interaction{inProgress(), inProgress(), completed("findings")},
	}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	result, err := p.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Findings != "findings" {
		t.Errorf("Findings = %q, want %q", result.Findings, "findings")
	}
	if result.InteractionID != "int-1" {
		t.Errorf("InteractionID = %q, want %q", result.InteractionID, "int-1")
	}
	if client.getCalls != 3 {
		t.Errorf("getCalls = %d, want 3", client.getCalls)
	}

	// First poll happens immediately, then backoff kicks in.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("recorded %d sleeps %v, want %d", len(*delays), *delays, len(want))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestBackoffDoublesToCeiling(t *testing.T) {
	delays := stubSleep(t)
	client := &fakeClient{
		createResult: types.Interaction{ID: "int-1", Status: types.StatusInProgress},
		script: []types.Interaction{
			inProgress(), inProgress(), inProgress(), inProgress(),
			inProgress(), inProgress(), completed("done"),
		},
	}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	if _, err := p.Run(context.Background(), "query"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		10 * time.Second, 10 * time.Second, 10 * time.Second,
	}
	if len(*delays) != len(want) {
		t.Fatalf("recorded sleeps %v, want %v", *delays, want)
	}
	prev := time.Duration(0)
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, d, want[i])
		}
		if d < prev {
			t.Errorf("sleep[%d] = %v decreased from %v", i, d, prev)
		}
		if d > 10*time.Second {
			t.Errorf("sleep[%d] = %v exceeds ceiling", i, d)
		}
		prev = d
	}
}

func TestRunImmediateCompletion(t *testing.T) {
	delays := stubSleep(t)
	client := &fakeClient{
		createResult: types.Interaction{ID: "int-1", Status: types.StatusCompleted, Text: "already done"},
	}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	result, err := p.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Findings != "already done" {
		t.Errorf("Findings = %q, want %q", result.Findings, "already done")
	}
	if client.getCalls != 0 {
		t.Errorf("getCalls = %d, want 0", client.getCalls)
	}
	if len(*delays) != 0 {
		t.Errorf("recorded sleeps %v, want none", *delays)
	}
}

func TestRunImmediateFailure(t *testing.T) {
	client := &fakeClient{
		createResult: types.Interaction{ID: "int-1", Status: types.StatusFailed},
	}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	_, err := p.Run(context.Background(), "query")

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("Run() error = %v, want *Error", err)
	}
	if pe.Reason != ReasonFailed {
		t.Errorf("Reason = %q, want %q", pe.Reason, ReasonFailed)
	}
	if pe.InteractionID != "int-1" {
		t.Errorf("InteractionID = %q, want %q", pe.InteractionID, "int-1")
	}
}

func TestRunEmptyInteractionID(t *testing.T) {
	client := &fakeClient{createResult: types.Interaction{Status: types.StatusInProgress}}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	_, err := p.Run(context.Background(), "query")
	if err == nil || !strings.Contains(err.Error(), "without an ID") {
		t.Fatalf("Run() error = %v, want missing-ID error", err)
	}
	if client.getCalls != 0 {
		t.Errorf("getCalls = %d, want 0", client.getCalls)
	}
}

func TestAwaitTerminalStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status types.InteractionStatus
	}{
		{"failed", types.StatusFailed},
		{"cancelled", types.StatusCancelled},
		{"requires action", types.StatusRequiresAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSleep(t)
			client := &fakeClient{
				script: []types.Interaction{inProgress(), {Status: tt.status}},
			}

			p := New(client, "agent-x", types.PollPolicy{}, nil)
			_, err := p.Await(context.Background(), "int-1")

			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("Await() error = %v, want *Error", err)
			}
			if pe.Reason != ReasonFailed {
				t.Errorf("Reason = %q, want %q", pe.Reason, ReasonFailed)
			}
			if pe.Status != tt.status {
				t.Errorf("Status = %q, want %q", pe.Status, tt.status)
			}
			// The error surfaces on the first observation of the status.
			if client.getCalls != 2 {
				t.Errorf("getCalls = %d, want 2", client.getCalls)
			}
			if len(client.cancelled) != 0 {
				t.Errorf("cancelled = %v, want none", client.cancelled)
			}
		})
	}
}

func TestAwaitUnknownStatusKeepsPolling(t *testing.T) {
	stubSleep(t)
	client := &fakeClient{
		script: []types.Interaction{
			{Status: "queued"}, {Status: "queued"}, completed("done"),
		},
	}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	got, err := p.Await(context.Background(), "int-1")
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got.Text != "done" {
		t.Errorf("Text = %q, want %q", got.Text, "done")
	}
	if client.getCalls != 3 {
		t.Errorf("getCalls = %d, want 3", client.getCalls)
	}
}

func TestAwaitDeadlineCancels(t *testing.T) {
	// Real sleeps with a tight policy: polls at 0ms, 20ms, 60ms, then the
	// 50ms deadline trips before the fourth poll.
	client := &fakeClient{script: []types.Interaction{inProgress()}}
	policy := types.PollPolicy{
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		MaxDuration:  50 * time.Millisecond,
	}

	p := New(client, "agent-x", policy, nil)
	_, err := p.Await(context.Background(), "int-1")

	if !IsTimeout(err) {
		t.Fatalf("Await() error = %v, want timeout", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.InteractionID != "int-1" {
		t.Errorf("error = %v, want interaction ID int-1", err)
	}
	if len(client.cancelled) != 1 || client.cancelled[0] != "int-1" {
		t.Errorf("cancelled = %v, want [int-1]", client.cancelled)
	}
}

func TestAwaitDeadlineCancelFailureStillTimesOut(t *testing.T) {
	client := &fakeClient{
		script:    []types.Interaction{inProgress()},
		cancelErr: errors.New("api unavailable"),
	}
	policy := types.PollPolicy{
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		MaxDuration:  50 * time.Millisecond,
	}

	p := New(client, "agent-x", policy, nil)
	_, err := p.Await(context.Background(), "int-1")

	if !IsTimeout(err) {
		t.Fatalf("Await() error = %v, want timeout despite failed cancel", err)
	}
	if len(client.cancelled) != 1 {
		t.Errorf("cancel attempts = %d, want 1", len(client.cancelled))
	}
}

func TestAwaitGetErrorPropagates(t *testing.T) {
	stubSleep(t)
	client := &fakeClient{getErr: errors.New("connection reset")}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	_, err := p.Await(context.Background(), "int-1")
	if err == nil || !strings.Contains(err.Error(), "polling interaction int-1") {
		t.Fatalf("Await() error = %v, want wrapped poll error", err)
	}
}

func TestRunCreateErrorPropagates(t *testing.T) {
	client := &fakeClient{createErr: errors.New("quota exhausted")}

	p := New(client, "agent-x", types.PollPolicy{}, nil)
	_, err := p.Run(context.Background(), "query")
	if err == nil || !strings.Contains(err.Error(), "creating interaction") {
		t.Fatalf("Run() error = %v, want create error", err)
	}
}

func TestAwaitContextCancelled(t *testing.T) {
	client := &fakeClient{script: []types.Interaction{inProgress()}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	policy := types.PollPolicy{InitialDelay: 1 * time.Second}
	p := New(client, "agent-x", policy, nil)
	_, err := p.Await(ctx, "int-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await() error = %v, want context deadline", err)
	}
}

func TestIsTimeout(t *testing.T) {
	timeout := &Error{InteractionID: "int-1", Reason: ReasonTimeout}
	if !IsTimeout(timeout) {
		t.Error("IsTimeout(timeout error) = false, want true")
	}
	if !IsTimeout(fmt.Errorf("research batch: %w", timeout)) {
		t.Error("IsTimeout(wrapped timeout) = false, want true")
	}
	if IsTimeout(&Error{Reason: ReasonFailed, Status: types.StatusFailed}) {
		t.Error("IsTimeout(failure error) = true, want false")
	}
	if IsTimeout(errors.New("other")) {
		t.Error("IsTimeout(plain error) = true, want false")
	}
}

func TestErrorMessages(t *testing.T) {
	timeout := &Error{InteractionID: "int-9", Reason: ReasonTimeout}
	if got := timeout.Error(); !strings.Contains(got, "int-9") || !strings.Contains(got, "timed out") {
		t.Errorf("timeout message = %q", got)
	}

	failed := &Error{InteractionID: "int-9", Reason: ReasonFailed, Status: types.StatusCancelled}
	if got := failed.Error(); !strings.Contains(got, "cancelled") || !strings.Contains(got, "int-9") {
		t.Errorf("failure message = %q", got)
	}
}
