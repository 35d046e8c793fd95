// Package cli implements the taskboard command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stsysd/taskboard/config"
	"github.com/stsysd/taskboard/db"
	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
	DataDir  string

	// set by PersistentPreRunE
	config    *config.Config
	logCloser io.Closer
}

// NewRootCommand creates the root command for the taskboard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "taskboard - projects and their tasks",
		Long:  "A project/task tracker backend with consistency rules between projects and tasks.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides TASKBOARD_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "SQLite data directory (overrides TASKBOARD_DATA_DIR)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// init loads configuration, applies flag overrides and sets up logging.
func (o *RootOptions) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := logging.Init(cfg.LoggingOptions())
	if err != nil {
		return err
	}
	o.config = cfg
	o.logCloser = closer
	return nil
}

// openStore opens the configured backend and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.UsePostgres() {
		s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, db.MigratePostgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		logging.Logger.Info("using PostgreSQL store")
		return s, nil
	}

	s, err := store.NewSQLiteStore(cfg.DataDir, db.Migrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	logging.Logger.WithField("data_dir", cfg.DataDir).Info("using SQLite store")
	return s, nil
}
