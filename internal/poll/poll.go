// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll drives background Gemini interactions to completion. Deep
// research runs take minutes, so the engine submits them detached and polls
// with exponential backoff until the run reaches a terminal status or the
// deadline passes.
package poll

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// Client is the slice of the Gemini API the poller needs.
type Client interface {
	CreateInteraction(ctx context.Context, agent, query string) (types.Interaction, error)
	GetInteraction(ctx context.Context, id string) (types.Interaction, error)
	CancelInteraction(ctx context.Context, id string) error
}

// sleep waits for d or until ctx is done. Package-level so tests can record
// backoff sequences without waiting them out.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller submits queries to a research agent and waits for the results.
type Poller struct {
	client Client
	agent  string
	policy types.PollPolicy
	logger *zap.Logger
}

// New builds a Poller for the named agent. Zero policy fields take the
// package defaults; a nil logger disables logging.
func New(client Client, agent string, policy types.PollPolicy, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{client: client, agent: agent, policy: policy.WithDefaults(), logger: logger}
}

// Result is a completed research run.
type Result struct {
	Findings      string
	InteractionID string
}

// Run submits query to the agent and polls until it completes. Failures and
// timeouts come back as *Error carrying the interaction ID.
func (p *Poller) Run(ctx context.Context, query string) (Result, error) {
	interaction, err := p.client.CreateInteraction(ctx, p.agent, query)
	if err != nil {
		return Result{}, fmt.Errorf("creating interaction: %w", err)
	}
	if interaction.ID == "" {
		return Result{}, fmt.Errorf("interaction created without an ID")
	}

	p.logger.Info("research interaction started",
		zap.String("interaction_id", interaction.ID),
		zap.String("agent", p.agent))

	// The API answers trivial queries synchronously.
	switch interaction.Status {
	case types.StatusCompleted:
		return Result{Findings: interaction.Text, InteractionID: interaction.ID}, nil
	case types.StatusFailed, types.StatusCancelled, types.StatusRequiresAction:
		return Result{}, &Error{InteractionID: interaction.ID, Reason: ReasonFailed, Status: interaction.Status}
	}

	final, err := p.Await(ctx, interaction.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Findings: final.Text, InteractionID: final.ID}, nil
}

// Await polls an existing interaction until it reaches a terminal status or
// the policy deadline passes. On deadline it cancels the interaction so the
// run does not keep consuming agent time; a failed cancel is logged and the
// result is still a timeout.
func (p *Poller) Await(ctx context.Context, id string) (types.Interaction, error) {
	start := time.Now()
	delay := p.policy.InitialDelay

	for polls := 0; ; polls++ {
		if time.Since(start) > p.policy.MaxDuration {
			p.logger.Warn("research deadline exceeded, cancelling",
				zap.String("interaction_id", id),
				zap.Duration("elapsed", time.Since(start)))
			if err := p.client.CancelInteraction(ctx, id); err != nil {
				p.logger.Warn("cancel failed",
					zap.String("interaction_id", id),
					zap.Error(err))
			}
			return types.Interaction{}, &Error{InteractionID: id, Reason: ReasonTimeout}
		}

		if polls > 0 {
			if err := sleep(ctx, delay); err != nil {
				return types.Interaction{}, err
			}
			delay = min(delay*2, p.policy.MaxDelay)
		}

		interaction, err := p.client.GetInteraction(ctx, id)
		if err != nil {
			return types.Interaction{}, fmt.Errorf("polling interaction %s: %w", id, err)
		}

		p.logger.Debug("interaction polled",
			zap.String("interaction_id", id),
			zap.String("status", string(interaction.Status)),
			zap.Duration("elapsed", time.Since(start)))

		switch interaction.Status {
		case types.StatusCompleted:
			return interaction, nil
		case types.StatusFailed, types.StatusCancelled:
			return types.Interaction{}, &Error{InteractionID: id, Reason: ReasonFailed, Status: interaction.Status}
		case types.StatusRequiresAction:
			// The engine has no way to satisfy an action request, so
			// surface it instead of polling a stuck run to the deadline.
			return types.Interaction{}, &Error{InteractionID: id, Reason: ReasonFailed, Status: interaction.Status}
		case types.StatusInProgress:
			// Still running.
		default:
			p.logger.Warn("unknown interaction status",
				zap.String("interaction_id", id),
				zap.String("status", string(interaction.Status)))
		}
	}
}
