package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taxifare/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the saved model over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := &deps{}
		defer d.close()
		model, err := loadModel(ctx, d, cfg)
		if err != nil {
			return err
		}
		server, err := api.NewServer(model, cfg.Server.TimeZone, slog.Default())
		if err != nil {
			return err
		}

		srv := &http.Server{Addr: cfg.Server.Addr, Handler: server.Routes()}
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		slog.Info("server started", "addr", cfg.Server.Addr, "model", model.String())

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}
