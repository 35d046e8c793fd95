package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/seed"
	"github.com/stsysd/taskboard/service"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	Reset bool
	File  string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample projects and tasks",
		Long: `Load sample projects and tasks through the same rules as the API.

With --reset every existing project and task is deleted first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "delete existing data first")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "seed YAML file (default: built-in sample data)")

	return cmd
}

func runSeed(cmd *cobra.Command, rootOpts *RootOptions, opts *SeedOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	load := seed.Default
	if opts.File != "" {
		load = func() (*seed.Dataset, error) { return seed.LoadFile(opts.File) }
	}
	ds, err := load()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, rootOpts.config)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Reset {
		if err := st.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}

	sum, err := seed.Apply(ctx, service.New(st), ds)
	if err != nil {
		return err
	}
	logging.Logger.WithFields(logrus.Fields{
		"projects": sum.Projects,
		"tasks":    sum.Tasks,
	}).Info("database seeded")
	fmt.Fprintf(cmd.OutOrStdout(), "Created %d projects and %d tasks\n", sum.Projects, sum.Tasks)
	return nil
}
