package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain/config"
	"github.com/jpalmerr/thirdbrain/internal/store"
)

// app is the per-invocation state shared by the job commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	ledger store.Store
}

// newApp loads env files, configuration and the ledger from the persistent
// flags. A ledger that cannot be opened is replaced by an in-memory one.
func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	format, _ := cmd.Flags().GetString("log-format")
	logger, err := newLogger(os.Stderr, format, verbose)
	if err != nil {
		return nil, err
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	files := config.DefaultEnvFiles()
	if envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			return nil, fmt.Errorf("env file: %w", err)
		}
		files = []string{envFile}
	}
	loaded, err := config.LoadEnvFiles(files...)
	if err != nil {
		return nil, err
	}
	if len(loaded) > 0 {
		logger.Debug("loaded env files", "files", files, "variables", len(loaded))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if off, _ := cmd.Flags().GetBool("no-ledger"); off {
		cfg.Ledger.Disabled = true
	}
	ledger, err := config.OpenLedger(cfg)
	if err != nil {
		logger.Warn("ledger unavailable, jobs will not be recorded", "error", err)
		ledger = store.NewMemoryStore()
	}

	return &app{cfg: cfg, logger: logger, ledger: ledger}, nil
}

// loadConfig reads -c when given, otherwise builds the configuration from
// the environment alone.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

// record adds a job to the ledger. Failures are logged, never returned.
func (a *app) record(ctx context.Context, rec store.JobRecord) {
	if err := a.ledger.Record(ctx, rec); err != nil {
		a.logger.Warn("failed to record job", "handle", rec.Handle, "error", err)
	}
}

// finish updates the status of a recorded job. Jobs submitted before the
// ledger existed, or from another machine, are recorded on first sight.
func (a *app) finish(ctx context.Context, rec store.JobRecord) {
	err := a.ledger.UpdateStatus(ctx, rec.Handle, rec.Status, rec.OutputPath)
	if errors.Is(err, store.ErrNotFound) {
		err = a.ledger.Record(ctx, rec)
	}
	if err != nil {
		a.logger.Warn("failed to update job", "handle", rec.Handle, "status", rec.Status, "error", err)
	}
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		a.logger.Warn("failed to close ledger", "error", err)
	}
}
