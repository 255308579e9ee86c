// internal/cli/schema.go
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/regcache/internal/regmap"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <map.xml>",
		Short: "Parse and validate a register map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := regmap.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d values in %d bytes\n", b.ID, len(b.AllValues()), b.SizeInBytes)
			return nil
		},
	}
}

func newFmtCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <map.xml>",
		Short: "Regenerate a register map, keeping number formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := regmap.ParseFile(args[0])
			if err != nil {
				return err
			}
			if write {
				return regmap.EncodeFile(args[0], b)
			}
			return regmap.Encode(cmd.OutOrStdout(), b)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to the source file instead of stdout")
	return cmd
}

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <map.xml>",
		Short: "List the values of a register map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := regmap.Load(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tLENGTH\tTYPE\tACCESS\tUNITS")
			for _, v := range b.AllValues() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					v.Name, v.Address(), v.Length(), v.Type, v.Accessibility(), v.Units)
			}
			return tw.Flush()
		},
	}
}
