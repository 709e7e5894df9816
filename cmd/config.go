package main

import (
	"bucketscan/internal/config"

	"github.com/spf13/cobra"
)

func configCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Dump(cmd.OutOrStdout(), cfg) //nolint: wrapcheck
		},
	}
}
