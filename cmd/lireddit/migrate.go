// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lireddit/lireddit/internal/store"
)

// migrator is the part of *store.Migrator the migrate commands drive.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// migratorFactory opens a migrator for a database URL.
type migratorFactory func(databaseURL string) (migrator, error)

func defaultMigratorFactory(databaseURL string) (migrator, error) {
	//nolint:wrapcheck // store errors carry their own codes
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd(root *rootOptions) *cobra.Command {
	return newMigrateCmd(root, defaultMigratorFactory)
}

func newMigrateCmd(root *rootOptions, factory migratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL account schema",
		Long:  `Apply, roll back or inspect the embedded schema migrations. The database is taken from DATABASE_URL.`,
	}

	// withMigrator opens a migrator from the loaded config for fn and closes it afterwards.
	withMigrator := func(fn func(*cobra.Command, []string, migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Accounts.DatabaseURL == "" {
				return oops.Code("CONFIG_INVALID").With("key", "accounts.database_url").
					Errorf("DATABASE_URL environment variable is required")
			}
			m, err := factory(cfg.Accounts.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := m.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()
			return fn(cmd, args, m)
		}
	}

	var yes bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all accounts",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, _ []string, m migrator) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all accounts; pass --yes to confirm")
			}
			return runMigrateDown(cmd, m)
		}),
	}
	down.Flags().BoolVar(&yes, "yes", false, "confirm dropping the accounts table")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, _ []string, m migrator) error {
				return runMigrateUp(cmd, m)
			}),
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, _ []string, m migrator) error {
				return runMigrateVersion(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Long:  `Clear a dirty migration state after repairing the database by hand.`,
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, args []string, m migrator) error {
				version, err := parseForceVersion(args[0])
				if err != nil {
					return err
				}
				return runMigrateForce(cmd, m, version)
			}),
		},
	)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, m migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return err
	}
	return runMigrateVersion(cmd, m)
}

func runMigrateDown(cmd *cobra.Command, m migrator) error {
	cmd.Println("Rolling back all migrations...")
	if err := m.Down(); err != nil {
		return err
	}
	cmd.Println("Rollback complete")
	return nil
}

func runMigrateVersion(cmd *cobra.Command, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		cmd.Println("Schema version: none")
		return nil
	}

	name, err := store.MigrationName(version)
	if err != nil {
		return err
	}
	line := "Schema version: " + strconv.FormatUint(uint64(version), 10)
	if name != "" {
		line += " (" + name + ")"
	}
	if dirty {
		line += " [dirty]"
	}
	cmd.Println(line)
	return nil
}

func runMigrateForce(cmd *cobra.Command, m migrator, version int) error {
	if err := m.Force(version); err != nil {
		return err
	}
	cmd.Printf("Forced schema version to %d\n", version)
	return nil
}

// parseForceVersion parses a non-negative migration version.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
