// Command server runs the contribution compliance service: KYC registry,
// contribution ledger, and the evaluation engine behind one HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"fecgate/internal/compliance"
	compliancehandler "fecgate/internal/compliance/handler"
	compliancemetrics "fecgate/internal/compliance/metrics"
	httpapi "fecgate/internal/http"
	"fecgate/internal/kyc"
	kyccache "fecgate/internal/kyc/cache"
	kychandler "fecgate/internal/kyc/handler"
	kycmetrics "fecgate/internal/kyc/metrics"
	kycmemory "fecgate/internal/kyc/store/memory"
	kycpostgres "fecgate/internal/kyc/store/postgres"
	"fecgate/internal/ledger"
	ledgermetrics "fecgate/internal/ledger/metrics"
	ledgermemory "fecgate/internal/ledger/store/memory"
	ledgerpostgres "fecgate/internal/ledger/store/postgres"
	"fecgate/internal/platform/config"
	"fecgate/internal/platform/httpserver"
	"fecgate/internal/platform/logger"
	"fecgate/internal/platform/metrics"
	platformredis "fecgate/internal/platform/redis"
	audit "fecgate/pkg/platform/audit"
	auditkafka "fecgate/pkg/platform/audit/kafka"
	"fecgate/pkg/platform/audit/publisher"
	auditmemory "fecgate/pkg/platform/audit/store/memory"
	auditpostgres "fecgate/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var health []httpapi.HealthCheck

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise. The
	// in-memory stores carry the same cap and duplicate semantics, so local
	// runs exercise the real rules.
	var (
		ledgerStore ledger.Store
		kycStore    kyc.Store
		auditStore  audit.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		ledgerStore = ledgerpostgres.New(db)
		kycStore = kycpostgres.New(db)
		auditStore = auditpostgres.New(db)
		health = append(health, httpapi.HealthCheck{
			Name:  "postgres",
			Check: func(ctx context.Context) error { return db.PingContext(ctx) },
		})
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		ledgerStore = ledgermemory.New()
		kycStore = kycmemory.New()
		auditStore = auditmemory.NewInMemoryStore()
	}

	// Redis cache for KYC status, optional.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	var rawRedis *goredis.Client
	if redisClient != nil {
		rawRedis = redisClient.Client
		defer redisClient.Close()
		health = append(health, httpapi.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	// Kafka audit feed, optional.
	auditSink, err := auditkafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("connecting to kafka", "error", err)
		os.Exit(1)
	}

	// Compliance events write through synchronously; the buffer only carries
	// operations-category events such as verification marks.
	publisherOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	}
	if auditSink != nil {
		publisherOpts = append(publisherOpts, publisher.WithForwarder(auditSink))
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisherOpts...)
	defer auditPublisher.Close()

	kycMetrics := kycmetrics.New()
	kycSvc := kyc.NewService(
		kyccache.New(kycStore, rawRedis, cfg.KYCCacheTTL, kyccache.WithMetrics(kycMetrics)),
		kyc.WithLogger(log),
		kyc.WithMetrics(kycMetrics),
		kyc.WithAuditPublisher(auditPublisher),
	)

	engine := compliance.NewService(kycSvc,
		ledger.Instrument(ledgerStore, ledgermetrics.New()),
		cfg.Limits, cfg.Scope,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliancemetrics.New()),
		compliance.WithAuditPublisher(auditPublisher),
		compliance.WithStorageTimeout(cfg.StorageTimeout),
	)

	router := httpapi.New(httpapi.Config{
		Logger:  log,
		Metrics: metrics.New(),
		Handlers: []httpapi.Registrar{
			compliancehandler.New(engine, log),
			kychandler.New(kycSvc, log),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting fecgate",
			"addr", cfg.Addr,
			"scope", string(cfg.Scope),
			"per_transaction_cap", cfg.Limits.PerTransaction.USD(),
			"cumulative_cap", cfg.Limits.Cumulative.USD(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if auditSink != nil {
		if err := auditSink.Close(ctx); err != nil {
			log.Error("closing audit sink", "error", err)
		}
	}
}
