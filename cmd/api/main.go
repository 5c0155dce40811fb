package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fintrax/internal/shared/config"
	"fintrax/internal/shared/logger"
	"fintrax/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var telemetryShutdown func(context.Context) error
	if cfg.Telemetry.Enabled {
		telemetryShutdown, err = telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		}, zl)
		if err != nil {
			return fmt.Errorf("failed to init telemetry: %w", err)
		}
	}

	deps, err := NewDependencies(ctx, cfg, zl)
	if err != nil {
		return err
	}

	handler := SetupRoutes(deps, cfg, zl)
	scfg := NewServerConfigFromConfig(handler, cfg)
	scfg.OnShutdown = deps.Hub.Close

	errCh := make(chan error, 1)
	srv, redirectSrv := StartServers(scfg, zl, errCh)

	select {
	case <-ctx.Done():
	case err = <-errCh:
		zl.Error("server failed", zap.Error(err))
	}

	GracefulShutdown(srv, redirectSrv, deps, telemetryShutdown, cfg.Server.ShutdownTimeout, zl)
	return err
}
