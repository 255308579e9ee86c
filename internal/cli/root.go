// internal/cli/root.go
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tamzrod/regcache/internal/config"
	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/session"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
	DefaultConfigPath  = "regcache.yaml"
)

type rootOptions struct {
	logLevel   string
	configPath string
}

func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "regcache",
		Short:         "Inspect and edit device registers through a register map",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(cmd.ErrOrStderr(), opts.logLevel)
		},
	}
	cmd.SetOut(out)

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newFmtCommand())
	cmd.AddCommand(newFieldsCommand())
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newSetCommand(opts))
	cmd.AddCommand(newDumpCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	cmd.PersistentFlags().StringVar(&opts.logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&opts.configPath, ConfigOptionName, DefaultConfigPath, "Session config file")
	return cmd
}

// openSession loads, validates and normalizes the config, then builds the
// session. The config log level applies unless --log-level was given.
func (o *rootOptions) openSession() (*session.Session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	if o.logLevel == "" {
		if err := log.SetLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}

	s, err := session.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("session build failed (device=%s): %w", cfg.Device, err)
	}
	return s, nil
}
