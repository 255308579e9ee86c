// internal/regcache/state.go
package regcache

// State is the per-byte tracking state of the cache.
type State uint8

const (
	// Default: current equals the last value pulled from the block.
	Default State = iota
	// Modified: changed by a local write and not yet flushed.
	Modified
	// Updated: changed on the block side, detected by the last refresh.
	Updated
	// Error: holds a value the caller flagged as invalid. Never flushed.
	Error
)

func (s State) String() string {
	switch s {
	case Default:
		return "default"
	case Modified:
		return "modified"
	case Updated:
		return "updated"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
