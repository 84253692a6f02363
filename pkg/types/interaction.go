// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InteractionStatus is the remote-reported lifecycle state of a submitted
// interaction. The remote API may grow new states; values outside the known
// set are preserved as-is so pollers can log them.
type InteractionStatus string

const (
	StatusInProgress     InteractionStatus = "in_progress"
	StatusCompleted      InteractionStatus = "completed"
	StatusFailed         InteractionStatus = "failed"
	StatusCancelled      InteractionStatus = "cancelled"
	StatusRequiresAction InteractionStatus = "requires_action"
)

// Terminal reports whether the status ends an interaction's lifecycle.
// Unknown statuses are non-terminal: the remote side may still be working.
func (s InteractionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Interaction is a handle to one submitted unit of long-running remote work.
// The ID is assigned by the remote system at submission time and is the only
// way to fetch status, retrieve results, or cancel.
type Interaction struct {
	ID     string
	Status InteractionStatus

	// Text is the result text. Populated once the interaction completes.
	Text string
}

// PollPolicy bounds the poll loop that drives one interaction to a terminal
// outcome. Zero fields fall back to the defaults below.
type PollPolicy struct {
	// InitialDelay is the wait before the second status fetch (default 2s).
	// Each subsequent wait doubles until MaxDelay.
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`

	// MaxDelay caps the exponential backoff between polls (default 10s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`

	// MaxDuration is the wall-clock deadline for the whole polling session
	// (default 20m). Past it the interaction is cancelled and the session
	// reports a timeout.
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration"`
}

// Default poll policy values, sized so the deadline comfortably exceeds the
// 30-120s a deep research interaction usually takes while still bounding the
// cost of a stuck one.
const (
	DefaultInitialPollDelay = 2 * time.Second
	DefaultMaxPollDelay     = 10 * time.Second
	DefaultMaxPollDuration  = 20 * time.Minute
)

// WithDefaults returns the policy with zero fields replaced by defaults.
func (p PollPolicy) WithDefaults() PollPolicy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialPollDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxPollDelay
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = DefaultMaxPollDuration
	}
	return p
}
