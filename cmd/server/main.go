package main

import (
	"context"
	"database/sql"
	"delivery-route-optimizer/internal/adapters/cache"
	"delivery-route-optimizer/internal/adapters/repositories"
	"delivery-route-optimizer/internal/adapters/sessions"
	"delivery-route-optimizer/internal/adapters/streets"
	"delivery-route-optimizer/internal/api"
	"delivery-route-optimizer/internal/api/handlers"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/logger"
	"delivery-route-optimizer/internal/platform/metrics"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, OSRM) behind ports and starts the HTTP server.
func main() {
	log := logger.New("server")

	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("load .env: %v", err)
	}

	cfg, err := config.Load(config.Get("ROUTEOPT_CONFIG", ""))
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.SetLogger(logger.New("obs"))
	handlers.SetLogger(logger.New("api"))

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	orders := repositories.NewSQLOrderRepository(conn, cfg.Database.Driver)

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, orders, cfg, log); err != nil {
		return err
	}

	sessionStore, closeSessions, err := newSessionStore(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer closeSessions()

	router, err := newStreetRouter(cfg, conn, log)
	if err != nil {
		return err
	}

	rec, err := metrics.NewPromRecorder(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	strategy, err := services.StrategyByName(cfg.Optimizer.Strategy)
	if err != nil {
		return err
	}
	optimizer := services.NewRouteOptimizer(
		services.WithStrategy(strategy),
		services.WithLogger(logger.New("optimizer")),
		services.WithRecorder(rec),
	)

	svc := services.NewRouteService(
		optimizer,
		orders,
		sessionStore,
		router,
		streets.StraightLineRouter{},
		services.RouteServiceSettings{
			Depot: domain.Coordinates{Lat: cfg.Optimizer.Depot.Lat, Lng: cfg.Optimizer.Depot.Lng},
			Defaults: domain.OptimizationConfig{
				VehicleConsumptionRate: cfg.Optimizer.VehicleConsumptionRate,
				TimeOfDayFactor:        cfg.Optimizer.TimeOfDayFactor,
				MaxTwoOptSweeps:        cfg.Optimizer.MaxTwoOptSweeps,
				DelayThresholdMinutes:  cfg.Optimizer.DelayThresholdMinutes,
			},
			Zones: services.TrafficZones(cfg.Optimizer.TrafficZones),
		},
		logger.New("routes"),
	)

	handler := api.NewRouter(api.Deps{
		DB:       conn,
		Orders:   orders,
		Routes:   svc,
		Metrics:  metrics.Handler(nil),
		Recorder: rec,
		Log:      logger.New("http"),
	})

	// Timeouts allow for cold-cache street lookups (external API latency).
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening addr=%s strategy=%s streets=%s sessions=%s",
			cfg.Server.Addr, optimizer.Strategy(), cfg.Streets.Provider, cfg.Sessions.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initAndSeed(
	ctx context.Context,
	conn *sql.DB,
	orders *repositories.SQLOrderRepository,
	cfg *config.Config,
	log logger.Logger,
) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	if !cfg.Database.SeedOnStart {
		return nil
	}

	n, err := repositories.SeedFromJSON(ctx, orders, cfg.Database.SeedPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Infof("seeded %d orders from %s", n, cfg.Database.SeedPath)
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, conn *sql.DB) (ports.SessionStore, func(), error) {
	if cfg.Sessions.Backend != "redis" {
		return repositories.NewSQLSessionStore(conn, cfg.Database.Driver), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Sessions.RedisAddr,
		Password: cfg.Sessions.RedisPassword,
		DB:       cfg.Sessions.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Sessions.RedisAddr, err)
	}
	return sessions.NewRedisSessionStore(client, cfg.Sessions.TTL), func() { _ = client.Close() }, nil
}

func newStreetRouter(cfg *config.Config, conn *sql.DB, log logger.Logger) (ports.StreetRouter, error) {
	if cfg.Streets.Provider == "straight" {
		return streets.StraightLineRouter{}, nil
	}

	retry := streets.DefaultRetryPolicy()
	retry.Attempts = cfg.Streets.Retries

	// OSRM leg lookups are cached in the same database to avoid repeated table calls.
	return streets.NewOSRMRouter(
		cfg.Streets.OSRMURL,
		streets.WithProfile(cfg.Streets.Profile),
		streets.WithHTTPClient(&http.Client{Timeout: cfg.Streets.Timeout}),
		streets.WithRetryPolicy(retry),
		streets.WithStreetCache(cache.NewSQLStreetCache(conn, cfg.Database.Driver)),
		streets.WithRouterLogger(log),
		streets.WithUserAgent("delivery-route-optimizer"),
	)
}
