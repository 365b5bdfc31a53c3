package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"courtbridge/internal/audit"
	auditkafka "courtbridge/internal/audit/store/kafka"
	auditmemory "courtbridge/internal/audit/store/memory"
	auditpostgres "courtbridge/internal/audit/store/postgres"
	"courtbridge/internal/platform/config"
	"courtbridge/internal/platform/httpserver"
	"courtbridge/internal/platform/logger"
	"courtbridge/internal/platform/metrics"
	platformredis "courtbridge/internal/platform/redis"
	"courtbridge/internal/police"
	policehandler "courtbridge/internal/police/handler"
	"courtbridge/internal/storage/blob"
	blobs3 "courtbridge/internal/storage/blob/s3"
	"courtbridge/pkg/platform/middleware/requestid"
	"courtbridge/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit pipeline: events fan out to every configured store.
	inbox := make(chan audit.Event, cfg.Audit.BufferSize)
	publisher := audit.NewPublisher(inbox, log, m)
	stores := []audit.Store{auditmemory.New()}

	if cfg.Audit.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Audit.PostgresURL)
		if err != nil {
			log.Error("connect audit postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore := auditpostgres.New(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Error("migrate audit postgres", "error", err)
			os.Exit(1)
		}
		stores = append(stores, pgStore)
	}

	if cfg.Audit.KafkaBrokers != "" {
		kafkaStore, err := auditkafka.New(strings.Split(cfg.Audit.KafkaBrokers, ","), cfg.Audit.KafkaTopic)
		if err != nil {
			log.Error("connect audit kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		stores = append(stores, kafkaStore)
	}

	worker := audit.NewWorker(inbox, log, stores...)

	// Blob store for fetched police documents.
	var documents blob.Store
	if cfg.Blob.Bucket != "" {
		documents, err = blobs3.New(ctx, cfg.Blob)
		if err != nil {
			log.Error("connect blob store", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no blob bucket configured, documents stored in memory only")
		documents = blob.NewMemoryStore()
	}

	// Optional Redis listing cache.
	var cache *police.ListingCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = police.NewListingCache(redisClient.Client, cfg.Redis.ListingTTL, log)
	}

	// The gateway itself.
	client, err := police.NewClient(cfg.Police, log, m)
	if err != nil {
		log.Error("build police transport", "error", err)
		os.Exit(1)
	}
	fetcher := police.NewFetcher(client, cache, publisher, log)
	uploader := police.NewUploader(client, documents, publisher, log, m)
	outcomes := police.NewOutcomePublisher(client, publisher, log)

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	policehandler.New(fetcher, uploader, outcomes, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ignoreCanceled(worker.Run(groupCtx))
	})
	group.Go(func() error {
		return ignoreCanceled(uploader.Run(groupCtx))
	})
	group.Go(func() error {
		log.Info("starting courtbridge", "addr", cfg.Server.Addr, "police_available", client.Available())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("courtbridge stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
