// internal/cli/watch.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/poller"
	"github.com/tamzrod/regcache/internal/status"
	"github.com/tamzrod/regcache/internal/writer"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var (
		count int
		stale time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync with the device periodically and report changed values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			plan, closeWriters, err := writer.BuildPlan(s.Config, s.Cache.Size())
			if err != nil {
				return err
			}
			defer closeWriters()
			mirror := writer.New(plan)

			p, err := poller.New(poller.Config{
				Device:   s.Device,
				Interval: s.Interval,
				Image:    len(plan.Targets) > 0,
			}, s.Cache, s.Schema)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)

			out := make(chan poller.PollResult)
			done := make(chan struct{})
			go func() {
				defer close(done)
				p.Run(ctx, out)
			}()
			// the poller owns the cache until Run returns
			defer func() {
				cancel()
				<-done
			}()

			tracker := status.NewTracker(stale)
			secTicker := time.NewTicker(time.Second)
			defer secTicker.Stop()

			w := cmd.OutOrStdout()
			for cycles := 0; count == 0 || cycles < count; {
				select {
				case <-ctx.Done():
					return nil

				case res := <-out:
					cycles++
					if res.Err != nil {
						log.Error("sync failed (device=%s): %v", res.Device, res.Err)
					}
					if err := mirror.Write(ctx, res); err != nil {
						log.Error("mirror error (device=%s): %v", res.Device, err)
					}
					for _, u := range res.Updated {
						if u.Err != nil {
							log.Warning("%s: %v", u.Name, u.Err)
							continue
						}
						fmt.Fprintf(w, "%s %s=%s\n", res.At.Format(time.RFC3339), u.Name, u.Value)
					}
					if tracker.Observe(res.At, res.Err) {
						log.Info("device %s health: %s", res.Device, tracker.Snapshot())
					}

				case now := <-secTicker.C:
					if tracker.Tick(now) {
						log.Debug("device %s health: %s", s.Device, tracker.Snapshot())
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many sync cycles (0 runs until interrupted)")
	cmd.Flags().DurationVar(&stale, "stale", 0, "Report the device stale after this long without a good cycle (0 disables)")
	return cmd
}
