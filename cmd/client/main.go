package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/cli"
	"github.com/dmitrijs2005/gophdisk/internal/client/config"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: app.Metrics().Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn(ctx, "metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	app.Run(ctx)
}
