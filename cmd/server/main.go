package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"registrar/internal/platform/config"
	"registrar/internal/platform/health"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	"registrar/internal/voter"
	"registrar/internal/voter/events"
	"registrar/internal/voter/service"
	"registrar/internal/voter/store"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/requesttime"
	"registrar/pkg/secrets"
)

// main wires dependencies, serves HTTP, and drains on SIGINT/SIGTERM.
// Business logic lives in internal/voter.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("registrar stopped", "error", err)
		os.Exit(1)
	}
}

type resources struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func (r *resources) close(log *slog.Logger) {
	if r.kafka != nil {
		r.kafka.Close()
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := &resources{}
	defer res.close(log)

	checks := health.New(2 * time.Second)
	voters, err := buildStore(ctx, cfg, res, checks)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	publisher, err := buildPublisher(ctx, cfg, res, checks, log)
	if err != nil {
		return err
	}
	opts = append(opts, service.WithEventPublisher(publisher))

	svc, err := voter.NewService(voters, secrets.NewBcryptHasher(cfg.Security.BcryptCost), opts...)
	if err != nil {
		return fmt.Errorf("build voter service: %w", err)
	}

	router := chi.NewRouter()
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Method(http.MethodGet, "/healthz", checks)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	voter.NewHandler(svc, log, m).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting registrar",
			"addr", cfg.Server.Addr,
			"store", cfg.Store.Backend,
			"kafka", len(cfg.Kafka.Brokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down registrar")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildStore(ctx context.Context, cfg config.Config, res *resources, checks *health.Handler) (service.VoterStore, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		res.db = db
		pg := store.NewPostgres(db)
		if cfg.Database.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		checks.Register("postgres", pg.Health)
		return pg, nil
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		res.redis = client
		checks.Register("redis", client.Health)
		return store.NewRedis(client.Client), nil
	default:
		return store.NewInMemory(), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, res *resources, checks *health.Handler, log *slog.Logger) (service.EventPublisher, error) {
	client, err := kafka.New(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return events.NopPublisher{}, nil
	}
	res.kafka = client

	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 1, 1); err != nil {
		log.Warn("could not ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
	}

	publisher := events.NewKafkaPublisher(client, cfg.Kafka.Topic, events.WithLogger(log))
	checks.Register("kafka", func(ctx context.Context) error {
		if !publisher.Healthy() {
			return errors.New("event publishing degraded")
		}
		return kafka.Health(ctx, client)
	})
	return publisher, nil
}
