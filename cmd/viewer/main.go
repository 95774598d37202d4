// Package main is the entry point for the xviewer desktop viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/app"
	"github.com/Faultbox/xviewer/internal/config"
	"github.com/Faultbox/xviewer/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	files := config.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: viewer [flags] <model.wexbim>...")
		os.Exit(2)
	}

	logger.Info("=== xviewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, files)
	if err != nil {
		logger.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
