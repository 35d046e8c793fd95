package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stsysd/taskboard/api"
	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Port string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides TASKBOARD_PORT)")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *ServeOptions) error {
	cfg := rootOpts.config
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	metrics := api.NewMetrics()
	svc := service.New(st, service.WithReopenHook(metrics.ObserveReopen))
	server := api.NewServer(svc, cfg, api.WithMetrics(metrics))

	err = server.Run(ctx, ":"+cfg.Port)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err == nil {
		logging.Logger.Info("server stopped")
	}
	return err
}
