// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/regcache/internal/bitaddr"
	"github.com/tamzrod/regcache/internal/field"
	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/regcache"
	"github.com/tamzrod/regcache/internal/regmap"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Device   string
	Interval time.Duration

	// Image attaches a copy of the whole block to every good result.
	Image bool
}

// Poller is a clock-driven sync loop over one cache.
// While Run is active the poller owns the cache.
type Poller struct {
	cfg    Config
	cache  regcache.Cached
	schema *regmap.Block
}

// New creates a poller with immutable config.
func New(cfg Config, cache regcache.Cached, schema *regmap.Block) (*Poller, error) {
	if cfg.Device == "" {
		return nil, errors.New("poller: device name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cache == nil {
		return nil, errors.New("poller: cache required")
	}
	if schema == nil || !schema.Initialized() {
		return nil, errors.New("poller: initialized schema required")
	}
	return &Poller{cfg: cfg, cache: cache, schema: schema}, nil
}

// PollOnce performs exactly one sync cycle: push pending writes, then
// pull the whole block.
// All-or-nothing: a failed flush, or one that leaves writes pending, aborts
// the cycle before the refresh, so pending writes are not discarded.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		Device: p.cfg.Device,
		At:     time.Now(),
	}

	if p.cache.HasChanges() {
		pending := p.cache.Changes()
		if err := p.cache.Flush(ctx); err != nil {
			res.Err = fmt.Errorf("flush: %w", err)
			return res
		}
		if left := p.cache.Changes(); left != 0 {
			res.Err = fmt.Errorf("flush: %w: %d of %d bytes still pending", ErrPending, left, pending)
			return res
		}
		res.Flushed = pending
		log.Debug("poller %s: flushed %d bytes", p.cfg.Device, pending)
	}

	if err := p.cache.Refresh(ctx); err != nil {
		res.Err = fmt.Errorf("refresh: %w", err)
		return res
	}

	if p.cfg.Image {
		img := make([]byte, p.cache.Size())
		if err := p.cache.ReadSection(bitaddr.Address{}, bitaddr.FromBytes(len(img)), img); err != nil {
			res.Err = fmt.Errorf("image: %w", err)
			return res
		}
		res.Image = img
	}

	for _, v := range p.schema.AllValues() {
		if !v.Readable() {
			continue
		}
		st, err := field.State(p.cache, v)
		if err != nil || st != regcache.Updated {
			continue
		}
		u := FieldUpdate{Name: v.Name}
		u.Value, u.Err = field.Get(p.cache, v)
		res.Updated = append(res.Updated, u)
	}
	return res
}
