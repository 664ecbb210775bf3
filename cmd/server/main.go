package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"earshot/internal/catalog"
	"earshot/internal/changes"
	"earshot/internal/index"
	"earshot/internal/ingest"
	"earshot/internal/platform/config"
	"earshot/internal/platform/httpserver"
	"earshot/internal/platform/logger"
	"earshot/internal/platform/metrics"
	platformredis "earshot/internal/platform/redis"
	"earshot/internal/server"
	"earshot/internal/store"
)

// main wires the store, changes pipeline, ingestion loop, and HTTP router,
// and keeps the server lifecycle small. Business logic lives in the internal
// services packages.
func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	m := metrics.New()
	bus := changes.NewBus(cfg.ChangesBuffer)
	idx := index.NewInMemory()

	var publisher changes.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := changes.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("kafka publisher enabled", "topic", cfg.KafkaTopic)
	}

	cat := catalog.New(st, bus, idx, log, m)
	worker := changes.NewWorker(bus.Events(), store.Resolver(st), idx, publisher, log, m)
	feeds := ingest.New(cat, cfg.RefreshInterval, log, m)

	router := server.NewRouter(server.NewHandler(cat, feeds, log), log)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		return feeds.Run(ctx)
	})
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// newStore picks the record store backend from configuration: postgres wins
// over redis, and with neither an in-memory store serves development.
func newStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, func(), error) {
	switch {
	case cfg.PostgresURL != "":
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("using postgres store")
		return pg, func() { _ = db.Close() }, nil
	case cfg.RedisURL != "":
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis store")
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil
	default:
		log.Info("using in-memory store")
		return store.NewInMemory(), func() {}, nil
	}
}
