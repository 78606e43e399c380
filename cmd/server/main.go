// Package main - Entry point for the jewelcost pricing server
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jewelcost/api"
	"jewelcost/internal/app"
	"jewelcost/internal/config"
	"jewelcost/internal/logging"
	"jewelcost/internal/metrics"
)

func main() {
	cfgFile := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg := config.Get()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(loaded)
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	metrics.Register()

	engine, err := app.Build(cfg)
	if err != nil {
		logging.Fatal("failed to build pricing engine", zap.Error(err))
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
			logging.Fatal("server error", zap.Error(err))
		}
	case sig := <-stop:
		logging.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
