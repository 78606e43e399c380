// Package cmd - serve command
package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jewelcost/api"
	"jewelcost/internal/app"
	"jewelcost/internal/config"
	"jewelcost/internal/logging"
	"jewelcost/internal/metrics"
)

var serveAddr string

// serveCmd runs the HTTP pricing server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP pricing server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	metrics.Register()

	engine, err := app.Build(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := api.NewHandler(
		engine.Calculator,
		engine.Metals,
		engine.Table,
		cfg.AdminToken(),
		logging.Logger,
	)
	server := api.NewServer(
		cfg.Server.Addr,
		handler,
		time.Duration(cfg.Server.RequestTimeoutSeconds)*time.Second,
		logging.Logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-stop:
		logging.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
