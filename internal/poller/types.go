// internal/poller/types.go
package poller

import (
	"errors"
	"time"
)

// ErrPending means a flush returned without pushing every modified byte.
var ErrPending = errors.New("writes still pending")

// FieldUpdate is one value the device changed since the previous cycle.
type FieldUpdate struct {
	Name  string
	Value string // formatted; empty when Err is set
	Err   error  // value-level decode failure
}

// PollResult is a snapshot produced by one sync cycle.
type PollResult struct {
	Device string
	At     time.Time

	// Flushed is the number of Modified bytes pushed before the refresh.
	Flushed int

	Updated []FieldUpdate

	// Image is the block contents after the refresh, when requested.
	Image []byte

	Err error // non-nil means the cycle failed
}
