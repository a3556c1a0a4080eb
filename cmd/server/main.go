package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donorhub/internal/audit"
	"donorhub/internal/extsys/billing"
	"donorhub/internal/extsys/crm"
	"donorhub/internal/jwttoken"
	"donorhub/internal/lifecycle"
	lifecyclehandler "donorhub/internal/lifecycle/handler"
	"donorhub/internal/notify"
	"donorhub/internal/platform/config"
	"donorhub/internal/platform/httpserver"
	"donorhub/internal/platform/logger"
	"donorhub/internal/platform/metrics"
	platformredis "donorhub/internal/platform/redis"
	profilehandler "donorhub/internal/profile/handler"
	profileservice "donorhub/internal/profile/service"
	"donorhub/internal/profile/store"
)

// main wires dependencies and owns nothing else; business logic lives in the
// internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	ctx := context.Background()

	shutdown := lifecycle.NewShutdownCoordinator(log)

	// Profile persistence: Postgres, optionally fronted by a Redis cache.
	pgStore, err := store.NewPostgresStore(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("profile store init failed", "error", err.Error())
		os.Exit(1)
	}
	var profileStore store.Store = pgStore

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		profileStore = store.NewCachedStore(pgStore, redisClient.Client, cfg.Redis.CacheTTL, log)
		log.Info("profile cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}

	// Audit trail: outbox in Postgres, drained to Kafka when brokers are
	// configured.
	auditStore, err := audit.Open(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("audit store init failed", "error", err.Error())
		os.Exit(1)
	}
	auditPub := audit.NewPublisher(auditStore)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	stopAudit := func(context.Context) error { return nil }
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err.Error())
			os.Exit(1)
		}
		worker := audit.NewWorker(auditStore, sink, log, m)
		go func() {
			if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err.Error())
			}
		}()
		stopAudit = func(context.Context) error {
			stopWorker()
			sink.Close()
			return nil
		}
		log.Info("audit publishing enabled", "topic", cfg.Kafka.AuditTopic)
	} else {
		log.Info("audit publishing disabled, events stay in the outbox")
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(cfg.SMTP)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	billingClient := billing.New(cfg.Billing, log)
	crmClient := crm.New(cfg.CRM, log)

	profileSvc := profileservice.New(profileStore, billingClient, crmClient, log, m, auditPub)
	orchestrator := lifecycle.New(profileStore, auditPub, notifier, log, m)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	profilehandler.New(profileSvc, log, m, jwtService).Register(router)
	lifecyclehandler.New(orchestrator, cfg.AccountWebhookSecretHash, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	// Teardown order: stop accepting traffic, then the audit drain, then
	// release the stores.
	shutdown.Register("http server", srv.Shutdown)
	shutdown.Register("audit worker", stopAudit)
	shutdown.Register("profile store", profileStore.Close)
	shutdown.Register("audit store", auditStore.Close)
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	go func() {
		log.Info("starting donorhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	shutdown.Listen()
}
