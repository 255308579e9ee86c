// internal/regcache/errors.go
package regcache

import (
	"errors"
	"fmt"
)

// ErrContract is returned for calls the cache rejects before touching any
// buffer: size mismatches and sections outside the cache.
var ErrContract = errors.New("regcache: contract violation")

// IOError reports a failed block transfer. Cache contents are unchanged.
type IOError struct {
	Op    string // "read" or "write"
	Addr  int    // byte address of the transfer
	Words int    // words requested
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("regcache: %s of %d words at byte 0x%X failed: %v", e.Op, e.Words, e.Addr, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
