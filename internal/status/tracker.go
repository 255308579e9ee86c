// internal/status/tracker.go
package status

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/goburrow/modbus"
)

// Tracker derives a Snapshot from sync cycle outcomes and a 1 Hz tick.
// Owned by a single goroutine.
type Tracker struct {
	snap       Snapshot
	staleAfter time.Duration
}

// NewTracker starts in HealthUnknown. A zero staleAfter disables the
// stale state.
func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{staleAfter: staleAfter}
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe records one cycle result. It reports whether the snapshot changed.
func (t *Tracker) Observe(at time.Time, err error) bool {
	before := t.snap

	if err == nil {
		// Recovery / OK
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.LastOK = at
	} else {
		t.snap.Health = HealthError
		t.snap.LastErrorCode = ErrorCode(err)
		// seconds_in_error increments on Tick only
	}

	return !sameState(before, t.snap)
}

// Tick advances the error duration while not OK and moves an OK device to
// stale when no good cycle arrived in time. It reports whether the snapshot
// changed.
func (t *Tracker) Tick(now time.Time) bool {
	switch t.snap.Health {
	case HealthOK:
		if t.staleAfter > 0 && now.Sub(t.snap.LastOK) > t.staleAfter {
			t.snap.Health = HealthStale
			return true
		}
		return false
	case HealthUnknown:
		return false
	}

	if t.snap.SecondsInError < SecondsInErrorMax {
		t.snap.SecondsInError++
		return true
	}
	return false
}

func sameState(a, b Snapshot) bool {
	return a.Health == b.Health &&
		a.LastErrorCode == b.LastErrorCode &&
		a.SecondsInError == b.SecondsInError
}

// ErrorCode extracts a best-effort uint16 code from an error without
// assuming concrete types. If the error does not expose a code, returns
// CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return CodeModbusBase + uint16(mbErr.ExceptionCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CodeTimeout
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return CodeTimeout
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return CodeGeneric
}
