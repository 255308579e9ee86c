// internal/status/snapshot.go
package status

import (
	"fmt"
	"time"
)

// Snapshot is the device health as of the last sync cycle.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	LastOK         time.Time
}

func HealthName(h uint16) string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	}
	return fmt.Sprintf("health(%d)", h)
}

func (s Snapshot) String() string {
	if s.Health == HealthOK || s.Health == HealthUnknown {
		return HealthName(s.Health)
	}
	return fmt.Sprintf("%s code=0x%X for %ds", HealthName(s.Health), s.LastErrorCode, s.SecondsInError)
}
