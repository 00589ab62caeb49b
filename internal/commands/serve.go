package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/garden-planner/internal/app"
)

func newServeCommand(opts *rootOptions, indexHTML []byte) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, indexHTML)
		},
	}
	cmd.Flags().IntP("port", "p", 0, "port to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions, indexHTML []byte) error {
	cfg, err := app.LoadConfig(opts.v)
	if err != nil {
		return err
	}

	log, err := app.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	if f := opts.v.ConfigFileUsed(); f != "" {
		log.Info().Str("file", f).Msg("loaded config")
	}

	srv, err := app.NewServerFromConfig(cfg, log, indexHTML)
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
