// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"errors"
	"fmt"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

// Reason classifies why an interaction ended without findings.
type Reason string

const (
	// ReasonTimeout means the polling deadline elapsed before the
	// interaction reached a terminal status.
	ReasonTimeout Reason = "timeout"

	// ReasonFailed means the interaction reached a terminal status other
	// than completed, or asked for input the engine cannot provide.
	ReasonFailed Reason = "failed"
)

// Error reports an interaction that ended without findings. InteractionID is
// always set so the run can be inspected or cancelled out of band.
type Error struct {
	InteractionID string
	Reason        Reason
	Status        types.InteractionStatus
}

func (e *Error) Error() string {
	if e.Reason == ReasonTimeout {
		return fmt.Sprintf("research timed out (interaction: %s)", e.InteractionID)
	}
	return fmt.Sprintf("research failed with status %q (interaction: %s)", e.Status, e.InteractionID)
}

// IsTimeout reports whether err is a polling deadline failure.
func IsTimeout(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Reason == ReasonTimeout
}
