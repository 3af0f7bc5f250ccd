package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imagechat/imagechat/internal/config"
	"github.com/imagechat/imagechat/internal/imagen"
	"github.com/imagechat/imagechat/internal/logging"
	"github.com/imagechat/imagechat/internal/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrShowHelp) || errors.Is(err, config.ErrShowVersion) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.NewFromString(cfg.LogLevel, os.Stderr)

	logger.Info("Starting imagechat %s...", config.Version)
	logger.Debug("Configuration: port=%d, model=%s, images=%d, log-level=%s",
		cfg.Port, cfg.Model, cfg.Images, cfg.LogLevel)

	// Shut down cleanly on Ctrl-C or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := imagen.NewService(ctx, cfg.APIKey, cfg.Model, cfg.Images, logger)
	if err != nil {
		logger.Error("Failed to create image service: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	addr := fmt.Sprintf("localhost:%d", cfg.Port)
	server, err := web.NewServer(addr, generator, logger)
	if err != nil {
		logger.Error("Failed to create web server: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error("Server error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
