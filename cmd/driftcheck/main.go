package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/drift"
	"github.com/yourorg/listings-api/internal/env"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/renet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "driftcheck:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closeLog, err := logger.Setup(logger.Options{
		AppName: "driftcheck",
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Fluent: logger.FluentOptions{
			Enabled: cfg.FluentBit.Enabled,
			Host:    cfg.FluentBit.Host,
			Port:    cfg.FluentBit.Port,
			Level:   cfg.FluentBit.Level,
		},
	})
	if err != nil {
		log.Warn("continuing with stdout logging only", logger.Fields{"error": err.Error()})
	}
	defer func() { _ = closeLog() }()

	client := renet.NewClient(renet.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Token:       cfg.Upstream.Token,
		PublicToken: cfg.Upstream.PublicToken,
		Timeout:     cfg.Upstream.Timeout,
		RPS:         cfg.Upstream.RPS,
		Burst:       cfg.Upstream.Burst,
	})

	job := &drift.Job{
		Source: client,
		Logger: log,
		Config: drift.Config{
			Targets:              env.List("DRIFT_TARGETS"),
			PageSize:             env.GetInt("DRIFT_PAGE_SIZE", 50),
			MaxPages:             env.GetInt("DRIFT_MAX_PAGES", 5),
			Interval:             env.GetDuration("DRIFT_INTERVAL", 6*time.Hour),
			PauseBetweenRequests: env.GetDuration("DRIFT_PAUSE", 1500*time.Millisecond),
			RequestTimeout:       env.GetDuration("DRIFT_REQUEST_TIMEOUT", 12*time.Second),
			Agency:               category.Agency{ID: cfg.Agency.ID, Agents: cfg.Agency.Agents},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if env.GetBool("DRIFT_RUN_ONCE", false) {
		if _, err := job.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("drift run failed: %w", err)
		}
		return nil
	}
	if err := job.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("drift job stopped: %w", err)
	}
	return nil
}
