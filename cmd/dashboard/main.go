package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/quake-dashboard/internal/adapter/plates"
	"github.com/couchcryptid/quake-dashboard/internal/animation"
	"github.com/couchcryptid/quake-dashboard/internal/config"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/dataset"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	data, err := dataset.LoadFile(cfg.DatasetPath, logger)
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.DatasetPath, "error", err)
		os.Exit(1)
	}
	stats := data.Stats()
	metrics.DatasetEvents.Set(float64(data.Len()))
	metrics.DatasetRowsDropped.WithLabelValues("missing_field").Add(float64(stats.MissingCore))
	metrics.DatasetRowsDropped.WithLabelValues("bad_time").Add(float64(stats.BadTime))
	metrics.DatasetRowsDropped.WithLabelValues("duplicate").Add(float64(stats.Duplicates))

	// Plate overlay (feature-flagged via PLATES_ENABLED).
	var plateSource domain.PlateSource
	if cfg.PlatesEnabled {
		client := plates.NewClient(cfg.PlatesURL, cfg.PlatesTimeout, logger, metrics)
		plateSource = plates.NewCachedSource(client, metrics)
		logger.Info("plate overlay enabled", "url", cfg.PlatesURL, "timeout", cfg.PlatesTimeout)
	} else {
		logger.Info("plate overlay disabled")
	}

	// Interaction publishing (feature-flagged via KAFKA_ENABLED).
	var (
		recorder dashboard.InteractionRecorder
		writer   *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		recorder = writer
		logger.Info("interaction publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaInteractionsTopic)
	}

	trend, err := animation.ParseTrendMode(cfg.AnimationTrend)
	if err != nil {
		logger.Error("invalid animation trend", "error", err)
		os.Exit(1)
	}

	dash := dashboard.New(data, dashboard.Settings{
		DefaultMagTypes: cfg.DefaultMagTypes,
		SessionTTL:      cfg.SessionTTL,
		MaxFrames:       cfg.AnimationMaxFrames,
		FrameDelay:      cfg.AnimationFrameDelay,
		Trend:           trend,
	}, recorder, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, dash, plateSource, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "events", data.Len())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
