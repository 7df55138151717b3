// Package app wires noemad's command-line surface: flag parsing, config
// file loading, option validation, and handing the resolved Config to
// noema.Run.
package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvid-labs/noema/internal/noema"
	"github.com/corvid-labs/noema/internal/noema/config"
	"github.com/corvid-labs/noema/internal/noema/options"
	"github.com/corvid-labs/noema/pkg/logger"
)

const configFlagName = "config"

// NewNoemadCommand builds the noemad root command. Flags bind into viper
// so a config file and CLI flags can both populate the same Options tree,
// with CLI flags taking precedence.
func NewNoemadCommand() *cobra.Command {
	opts := options.NewOptions()
	var configFile string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "noemad",
		Short: "noemad runs the learning orchestration engine's agent pipeline",
		Long: `noemad serves the five-stage learning pipeline (High Priestess, Hermit,
Magician, Justice, Empress) over an HTTP API backed by a local markdown vault.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				if err := logger.SetLevel(logLevel); err != nil {
					return fmt.Errorf("invalid --log-level: %w", err)
				}
			}

			if err := mergeConfigFile(cmd, configFile, opts); err != nil {
				return err
			}

			if errs := opts.Validate(); len(errs) > 0 {
				msgs := make([]string, len(errs))
				for i, e := range errs {
					msgs[i] = e.Error()
				}
				return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(msgs, "\n  - "))
			}
			if err := opts.Complete(); err != nil {
				return err
			}

			cfg, err := config.CreateConfigFromOptions(opts)
			if err != nil {
				return err
			}

			logger.Info("[noema] starting noemad")
			return noema.Run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, configFlagName, "", "Path to a YAML/JSON/TOML config file. CLI flags override values loaded from it.")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error.")

	for _, fs := range opts.Flags().FlagSets() {
		flags.AddFlagSet(fs)
	}

	return cmd
}

// mergeConfigFile binds the command's already-parsed flags into viper, then
// (if configFile is set) layers a config file underneath them and
// unmarshals the merged view back into opts. viper.BindPFlags makes a flag
// the user actually passed win over the file; an unset flag falls through
// to the file value, and an unset flag with no file entry keeps the
// Options default it was registered with.
func mergeConfigFile(cmd *cobra.Command, configFile string, opts *options.Options) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %q: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("parse merged configuration: %w", err)
	}
	return nil
}
