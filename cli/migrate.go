package cli

import (
	"github.com/spf13/cobra"

	"github.com/stsysd/taskboard/logging"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening a store applies pending migrations
			st, err := openStore(cmd.Context(), rootOpts.config)
			if err != nil {
				return err
			}
			defer st.Close()
			logging.Logger.Info("migrations applied")
			return nil
		},
	}
}
