// internal/cli/device.go
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/regcache/internal/field"
	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/regmap"
	"github.com/tamzrod/regcache/internal/session"
)

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <field>...",
		Short: "Read values from the device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			values := make([]*regmap.Value, 0, len(args))
			for _, name := range args {
				v, err := s.Lookup(name)
				if err != nil {
					return err
				}
				values = append(values, v)
			}

			if err := s.Cache.Refresh(cmd.Context()); err != nil {
				return err
			}

			var failed int
			for _, v := range values {
				text, err := field.Get(s.Cache, v)
				if err != nil {
					log.Error("get %s: %v", v.Name, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", v.Name, text)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d values could not be read", failed, len(values))
			}
			return nil
		},
	}
}

func newSetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field>=<value>...",
		Short: "Write values to the device",
		Long: "Reads the block, applies every assignment to the cache and flushes the\n" +
			"modified registers in one pass. Nothing is written if any assignment fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			type assignment struct {
				v    *regmap.Value
				text string
			}
			plan := make([]assignment, 0, len(args))
			for _, arg := range args {
				name, text, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("%q: expected <field>=<value>", arg)
				}
				v, err := s.Lookup(name)
				if err != nil {
					return err
				}
				plan = append(plan, assignment{v, text})
			}

			// registers are written whole: start from the device image
			ctx := cmd.Context()
			if err := s.Cache.Refresh(ctx); err != nil {
				return err
			}
			for _, a := range plan {
				if err := field.Set(s.Cache, a.v, a.text); err != nil {
					return err
				}
			}

			pending := s.Cache.Changes()
			if err := s.Cache.Flush(ctx); err != nil {
				return err
			}
			log.Info("%s: flushed %d modified bytes", s.Device, pending)
			return nil
		},
	}
}

func newDumpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Read every readable value from the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Cache.Refresh(cmd.Context()); err != nil {
				return err
			}
			return dump(cmd, s)
		},
	}
}

func dump(cmd *cobra.Command, s *session.Session) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tSCALED\tUNITS\tSTATE")
	var errs field.ErrorSet
	for _, v := range s.Schema.AllValues() {
		if !v.Readable() {
			continue
		}
		text, err := errs.Get(s.Cache, v)
		if err != nil {
			if !errors.Is(err, field.ErrInput) {
				return err
			}
			text = "?"
		}
		scaled := ""
		if v.Conversion() != nil {
			if x, err := field.Scaled(s.Cache, v); err == nil {
				scaled = strconv.FormatFloat(x, 'g', -1, 64)
			}
		}
		st, err := errs.State(s.Cache, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Name, text, scaled, v.Units, st)
	}
	return tw.Flush()
}
