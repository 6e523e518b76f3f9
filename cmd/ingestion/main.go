package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/framepro/internal/bootstrap"
	"github.com/your-org/framepro/internal/ingestion"
	"github.com/your-org/framepro/pkg/config"
	"github.com/your-org/framepro/pkg/logger"
	"github.com/your-org/framepro/pkg/metrics"
	"github.com/your-org/framepro/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Name, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Attributes:     tracing.ParseAttributes(cfg.Tracing.ResourceAttr),
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	reg := metrics.NewRegistry()

	pipeline, err := bootstrap.Build(ctx, cfg, logr, reg)
	if err != nil {
		logr.Fatal("init ingestion pipeline", zap.Error(err))
	}

	opts := ingestion.HandlerOptions{
		MaxEventBytes:  cfg.HTTP.MaxEventBytes,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Checks:         pipeline.Checks,
	}
	if pipeline.Registry != nil {
		opts.Lookup = pipeline.Registry
	}
	handler := ingestion.NewHTTPHandler(pipeline.Service, logr, opts)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Addr, reg)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logr.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logr.Error("metrics server shutdown failed", zap.Error(err))
			}
		}
		if err := pipeline.Close(shutdownCtx); err != nil {
			logr.Error("pipeline shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("ingestion service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("metrics_addr", cfg.Metrics.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}
