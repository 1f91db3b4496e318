// Package main runs the steward consistency core.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stewardhq/steward/internal/app"
	"github.com/stewardhq/steward/internal/platform/config"
	"github.com/stewardhq/steward/internal/platform/otel"
)

const otelShutdownTimeout = 5 * time.Second

func main() {
	var cfg app.Config
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "steward")
	if err != nil {
		config.Exitf("Error: otel setup: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("steward: otel shutdown: %v", err)
		}
	}()

	a, err := app.New(cfg)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("steward: close: %v", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		config.Exitf("Error: %v", err)
	}
}
