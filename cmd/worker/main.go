package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/martivilar/camins/internal/adapters/nats"
	"github.com/martivilar/camins/internal/adapters/overpass"
	"github.com/martivilar/camins/internal/adapters/postgres"
	"github.com/martivilar/camins/internal/adapters/valkey"
	"github.com/martivilar/camins/internal/core/ports"
	"github.com/martivilar/camins/internal/core/trailgraph"
	"github.com/martivilar/camins/internal/core/usecases"
	"github.com/martivilar/camins/internal/pkg/config"
	"github.com/martivilar/camins/internal/pkg/logging"
	"github.com/martivilar/camins/internal/pkg/metrics"
	"github.com/martivilar/camins/internal/pkg/telemetry"
)

// The worker consumes route jobs from the broker and executes them.
// Scaling out is a matter of running more replicas; the work queue
// delivers each job to exactly one of them.
func main() {
	cfg, err := config.Load("camins-worker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	monumentRepo := postgres.NewMonumentRepo(db)
	trackpointRepo := postgres.NewTrackpointRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	source := overpass.New(cfg.Overpass.URL, time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second)
	segmentSvc := usecases.NewSegmentService(source, trackpointRepo, cacheSvc, usecases.SegmentOptions{
		TimeDelta:       time.Duration(cfg.Routing.TimeDeltaSeconds) * time.Second,
		DistanceDeltaKm: cfg.Routing.DistanceDeltaKm,
		Cluster: trailgraph.ClusterConfig{
			Clusters:  cfg.Routing.ClusterCount,
			HardCap:   cfg.Routing.ClusterHardCap,
			MinPoints: cfg.Routing.MinClusterPoints,
			Seed:      cfg.Routing.ClusterSeed,
		},
	})
	routeSvc := usecases.NewRouteService(segmentSvc, monumentRepo, cfg.Routing.EpsilonDegrees)
	jobSvc := usecases.NewJobService(jobRepo, routeSvc, publisher)

	handler := func(ctx context.Context, jobID string) error {
		started := time.Now()
		err := jobSvc.Run(ctx, jobID)
		metrics.JobDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			metrics.JobsCompleted.WithLabelValues("failed").Inc()
			return err
		}
		metrics.JobsCompleted.WithLabelValues("completed").Inc()
		return nil
	}

	if err := subscriber.SubscribeJobCreated(ctx, handler); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("route worker running", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())
	cancel()
	slog.Info("worker stopped")
}
