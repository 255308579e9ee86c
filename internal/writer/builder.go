// internal/writer/builder.go
package writer

import (
	"fmt"

	"github.com/tamzrod/regcache/internal/config"
	"github.com/tamzrod/regcache/internal/session"
)

// BuildPlan opens every mirror of cfg for a block of size bytes.
// Assumes config has already passed validation and normalization.
// The returned func closes all targets.
func BuildPlan(cfg *config.Config, size int) (Plan, func() error, error) {
	plan := Plan{Device: cfg.Device}
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	if len(cfg.Mirrors) > 0 && size%2 != 0 {
		return Plan{}, nil, fmt.Errorf("writer: block size %d is not a whole number of registers", size)
	}

	for _, m := range cfg.Mirrors {
		b, closeFn, err := session.OpenBlock[uint16](m.TransportConfig, size)
		if err != nil {
			_ = closeAll()
			return Plan{}, nil, fmt.Errorf("writer: mirror %s: %w", m.Name, err)
		}
		closers = append(closers, closeFn)
		plan.Targets = append(plan.Targets, Target{Name: m.Name, Block: b})
	}

	return plan, closeAll, nil
}
