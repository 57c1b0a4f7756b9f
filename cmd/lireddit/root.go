// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lireddit/lireddit/internal/config"
	"github.com/lireddit/lireddit/internal/xdg"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the lireddit CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lireddit",
		Short: "lireddit account service",
		Long: `lireddit serves account registration, login and the current-user
lookup over a JSON HTTP API with cookie sessions.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"config file path (YAML, default $XDG_CONFIG_HOME/lireddit/config.yaml if present)")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))

	return cmd
}

// loadConfig reads the config file, the command's flags and the environment.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	//nolint:wrapcheck // config errors carry their own codes
	return config.Load(path, cmd.Flags(), os.Getenv)
}
