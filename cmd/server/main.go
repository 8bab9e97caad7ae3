package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"attestry/internal/admin"
	"attestry/internal/platform/clock"
	"attestry/internal/platform/config"
	"attestry/internal/platform/httpserver"
	"attestry/internal/platform/logger"
	platformmetrics "attestry/internal/platform/metrics"
	"attestry/internal/platform/postgres"
	"attestry/internal/platform/ratelimit"
	platformredis "attestry/internal/platform/redis"
	"attestry/internal/platform/token"
	"attestry/internal/registry"
	"attestry/internal/registry/events"
	registrymetrics "attestry/internal/registry/metrics"
	"attestry/internal/registry/service"
	"attestry/internal/registry/store"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in internal/registry.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, bootstrapper, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("failed to build registry store", "backend", string(cfg.StoreBackend), "error", err)
		os.Exit(1)
	}
	defer cleanup()

	publisher, err := events.NewKafkaPublisher(cfg.KafkaSeeds, cfg.KafkaTopic)
	if err != nil {
		log.Error("failed to connect event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	opts := []service.Option{
		service.WithClock(clock.NewSystem()),
		service.WithMetrics(registrymetrics.New()),
		service.WithLogger(log),
	}
	if publisher != nil {
		opts = append(opts, service.WithEvents(publisher))
	}
	svc := registry.NewService(st, opts...)

	httpMetrics := platformmetrics.New()
	validator := token.NewValidator(cfg.JWTSigningKey)
	limiter := ratelimit.New(cfg.RateLimit)

	router := chi.NewRouter()
	registry.NewHandler(svc, log, httpMetrics, validator, limiter).Register(router)
	admin.New(bootstrapper, cfg.AdminTokenHash, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting attestry", "addr", cfg.Addr, "store", string(cfg.StoreBackend))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildStore constructs the configured store backend together with its
// bootstrap action and cleanup.
func buildStore(ctx context.Context, cfg config.Server) (registry.Store, admin.Bootstrapper, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		bootstrapper := admin.BootstrapFunc(func(ctx context.Context) error {
			return store.EnsureSchema(ctx, db)
		})
		return store.NewPostgres(db), bootstrapper, func() { db.Close() }, nil

	case config.BackendRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			return nil, nil, nil, errors.New("redis backend selected but REDIS_URL is empty")
		}
		return store.NewRedis(client.Client), admin.NoopBootstrapper, func() { client.Close() }, nil

	default:
		return store.NewInMemory(), admin.NoopBootstrapper, func() {}, nil
	}
}
