// cmd/research/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"commit-miner/internal/app"
	"commit-miner/internal/config"
	"commit-miner/internal/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Research run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.SetLogLevel(cfg.LogLevel, logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Driver.Run(ctx, cfg.Criteria())
	fmt.Println(res.Message())

	switch res.Outcome {
	case model.OutcomeExportFailed, model.OutcomeInvalidCriteria:
		return res.Err
	}
	return nil
}
