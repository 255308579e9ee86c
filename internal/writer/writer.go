// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/poller"
	"github.com/tamzrod/regcache/internal/regcache"
)

type writerImpl struct {
	plan Plan
}

func New(plan Plan) Writer {
	return &writerImpl{plan: plan}
}

// Write replicates the image of a good cycle to every target, whole block
// each time. Failed cycles and results without an image write nothing.
// A failing target does not stop the others.
func (w *writerImpl) Write(ctx context.Context, res poller.PollResult) error {
	if res.Err != nil || res.Image == nil {
		return nil
	}
	if len(res.Image)%2 != 0 {
		return fmt.Errorf("writer: image of %d bytes is not a whole number of registers", len(res.Image))
	}

	words := make([]uint16, len(res.Image)/2)
	regcache.Pack(words, res.Image)

	var errs []string
	for _, tgt := range w.plan.Targets {
		if size := tgt.Block.SizeInBytes(); size != len(res.Image) {
			errs = append(errs, fmt.Sprintf(
				"writer: target=%s size=%d does not match image size=%d",
				tgt.Name, size, len(res.Image),
			))
			continue
		}
		if err := tgt.Block.Write(ctx, 0, words); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: device=%s target=%s err=%v",
				res.Device, tgt.Name, err,
			))
			continue
		}
		log.Debug("writer: device=%s target=%s %d registers", res.Device, tgt.Name, len(words))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
