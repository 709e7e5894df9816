// Package main provides the CLI entrypoint for bucketscan.
// It wires subcommands (hunt, config), loads configuration, and initializes logging.
package main

import (
	"bucketscan/internal/config"
	"bucketscan/pkg/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCommand builds the command tree. cfg is filled in before any
// subcommand runs.
func rootCommand(cfg *config.Config) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "bucketscan",
		Short:         "Probes hostnames for takeover via abandoned S3 buckets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config: %w", err)
			}
			*cfg = *loaded

			if err := logger.Setup(cfg.Environment, cfg.Log.Level); err != nil {
				return fmt.Errorf("could not setup logger: %w", err)
			}

			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Config File Path")

	rootCmd.AddCommand(
		huntCommand(cfg),
		configCommand(cfg),
	)

	return rootCmd
}

// main sets up the root Cobra command and executes the CLI.
func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	var cfg config.Config
	err := rootCommand(&cfg).Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorf("error: %v", err))
		os.Exit(1) //nolint: gocritic
	}
}
