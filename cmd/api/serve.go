package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/app"
	"github.com/hamed0406/apimonitor/internal/config"
	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start probing targets and serve the read API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, targets, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("config_loaded",
		zap.String("addr", cfg.Addr),
		zap.Int("targets", len(targets)),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)

	a, err := app.New(ctx, cfg, targets, logger)
	if err != nil {
		logger.Error("startup_failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close_failed", zap.Error(err))
		}
	}()

	return a.Run(ctx)
}

// loadConfig reads the environment and the targets file, honoring the
// --targets flag.
func loadConfig(cmd *cobra.Command) (config.Config, []domain.Target, error) {
	cfg := config.FromEnv()
	if f, _ := cmd.Flags().GetString("targets"); f != "" {
		cfg.TargetsFile = f
	}
	targets, err := config.LoadTargets(cfg.TargetsFile, cfg.ProbeInterval, cfg.ProbeTimeout)
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid targets: %w", err)
	}
	return cfg, targets, nil
}
