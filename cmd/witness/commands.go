package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/VikingOwl91/witness/internal/config"
	"github.com/VikingOwl91/witness/internal/logging"
	"github.com/VikingOwl91/witness/internal/resolution"
	"github.com/VikingOwl91/witness/internal/witness"
	"github.com/spf13/cobra"
)

type commonFlags struct {
	configPath    string
	reportPath    string
	configuration string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", config.DefaultPath, "path to config file")
	cmd.Flags().StringVarP(&f.reportPath, "report", "r", "", "path to the resolution report written by the build tool")
	cmd.Flags().StringVar(&f.configuration, "configuration", "", "dependency configuration to check (overrides config)")
	_ = cmd.MarkFlagRequired("report")
}

func newVerifyCmd() *cobra.Command {
	var flags commonFlags
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fail unless every resolved dependency is pinned or excluded and matches its pin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

			report, err := resolution.LoadReport(flags.reportPath)
			if err != nil {
				return err
			}

			hook := witness.New(cmd.OutOrStdout(), logger)
			hook.Configure(cfg)
			hook.SetConfiguration(flags.configuration)

			if err := hook.AfterResolution(cmd.Context(), report); err != nil {
				logger.Debug("verification failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newChecksumsCmd() *cobra.Command {
	var flags commonFlags
	cmd := &cobra.Command{
		Use:     "checksums",
		Aliases: []string{"calculate-checksums"},
		Short:   "Print a verify block with the current hash of every resolved dependency",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOptionalConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

			report, err := resolution.LoadReport(flags.reportPath)
			if err != nil {
				return err
			}

			hook := witness.New(cmd.OutOrStdout(), logger)
			hook.Configure(cfg)
			hook.SetConfiguration(flags.configuration)

			return hook.Checksums(cmd.Context(), cmd.OutOrStdout(), report)
		},
	}
	flags.register(cmd)
	return cmd
}

// loadOptionalConfig falls back to defaults when the file does not exist, so
// pins can be bootstrapped before any config is written.
func loadOptionalConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := &config.Config{}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("default config: %w", err)
		}
		return cfg, nil
	}
	return config.Load(path)
}
