package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/martivilar/camins/internal/adapters/http"
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

func main() {
	cfg, err := config.Load("camins-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Export pool stats for Prometheus
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cache = c
		cacheSvc = c
		defer cache.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = nc
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	monumentRepo := postgres.NewMonumentRepo(db)
	trackpointRepo := postgres.NewTrackpointRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	// External segment source
	source := overpass.New(cfg.Overpass.URL, time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second)

	// Use cases
	monumentSvc := usecases.NewMonumentService(monumentRepo, cacheSvc)
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

	deps := &http.Dependencies{
		Monuments: monumentSvc,
		Segments:  segmentSvc,
		Routes:    routeSvc,
		Jobs:      jobSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Camins API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.camins.cat",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
