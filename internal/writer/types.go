// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/regcache/internal/poller"
	"github.com/tamzrod/regcache/internal/regcache"
)

// Target is one mirror the device image is replicated to.
type Target struct {
	Name  string
	Block regcache.Block[uint16]
}

// Plan is the fully-built mirror plan for one device.
type Plan struct {
	Device  string
	Targets []Target
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(ctx context.Context, res poller.PollResult) error
}
