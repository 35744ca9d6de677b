// Command assetadmin runs the asset registry's admin API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/halcyonex/assetadmin/internal/auth"
	"github.com/halcyonex/assetadmin/internal/config"
	"github.com/halcyonex/assetadmin/internal/gateway"
	"github.com/halcyonex/assetadmin/internal/notify"
	"github.com/halcyonex/assetadmin/internal/registry"
	"github.com/halcyonex/assetadmin/internal/server"
	"github.com/halcyonex/assetadmin/pkg/logger"
	"github.com/halcyonex/assetadmin/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to yaml config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "assetadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting assetadmin",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.Server.Addr),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("notify_sink", cfg.Notify.Sink))

	promRegistry := prometheus.NewRegistry()
	metrics.Register(promRegistry)

	guard, err := buildGuard(cfg, log)
	if err != nil {
		return err
	}
	sink, closeSink, err := buildSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	reg := registry.NewService(
		&registry.Config{
			AllowedChainIDs:  cfg.Registry.AllowedChainIDs,
			LiquiditySources: cfg.Registry.LiquiditySources,
		},
		auth.ContextCapability{},
		gateway.NewFixedStub(),
		sink,
		log,
	)

	srv := server.New(reg, guard, log, promRegistry)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin API listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildGuard(cfg *config.Config, log *zap.Logger) (auth.Guard, error) {
	switch cfg.Auth.Mode {
	case "token":
		return auth.NewStaticTokenGuard(cfg.Auth.StaticToken, log), nil
	case "jwt":
		return auth.NewJWTGuard([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, log), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func buildSink(cfg *config.Config, log *zap.Logger) (notify.Sink, func(), error) {
	switch cfg.Notify.Sink {
	case "log":
		return notify.NewLogSink(log), func() {}, nil
	case "kafka":
		pub := notify.NewKafkaPublisher(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, log)
		return pub, func() {
			if err := pub.Close(); err != nil {
				log.Warn("failed to close kafka writer", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notify sink %q", cfg.Notify.Sink)
	}
}
