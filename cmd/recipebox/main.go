package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matt-dz/recipebox/internal/config"
	"github.com/matt-dz/recipebox/internal/log"
	"github.com/matt-dz/recipebox/internal/setup"
	"github.com/matt-dz/recipebox/internal/web"
)

const sweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.LoadConfig()
	if err != nil {
		log.New(nil).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := log.New(&slog.HandlerOptions{Level: conf.LogLevel.Level()})

	env, err := setup.Env(conf, logger)
	if err != nil {
		logger.Error("failed to setup environment", slog.Any("error", err))
		os.Exit(1)
	}

	go env.Drafts.Run(ctx, sweepInterval, logger)

	if err := web.Start(ctx, env); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
