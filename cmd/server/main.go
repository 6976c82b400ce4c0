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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agritrace/internal/approval"
	approvalhandler "agritrace/internal/approval/handler"
	"agritrace/internal/audit"
	"agritrace/internal/catalog"
	cataloghandler "agritrace/internal/catalog/handler"
	"agritrace/internal/ledger"
	"agritrace/internal/platform/config"
	"agritrace/internal/platform/httpserver"
	"agritrace/internal/platform/logger"
	"agritrace/internal/platform/metrics"
	"agritrace/internal/platform/middleware"
	platformredis "agritrace/internal/platform/redis"
	"agritrace/internal/provenance"
	provenancehandler "agritrace/internal/provenance/handler"
	"agritrace/internal/recent"
	"agritrace/internal/store"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record stores: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		products  store.ProductStore
		actors    store.ActorStore
		shipments store.ShipmentStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("opening postgres failed", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		products = store.NewPostgresProductStore(db)
		actors = store.NewPostgresActorStore(db)
		shipments = store.NewPostgresShipmentStore(db)
		log.Info("using postgres record store")
	} else {
		products = store.NewInMemoryProductStore()
		actors = store.NewInMemoryActorStore()
		shipments = store.NewInMemoryShipmentStore()
		log.Info("using in-memory record store")
	}

	// Recent-lookup cache: Redis-backed when configured.
	var cache recent.Cache = recent.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = recent.NewRedis(redisClient.Client)
		log.Info("using redis recent-lookup cache")
	}

	// Ledger gateway: HTTP when configured, simulated otherwise.
	var gw ledger.Gateway
	if cfg.Ledger.Mode == "http" && cfg.Ledger.BaseURL != "" {
		gw = ledger.NewHTTPGateway(cfg.Ledger.BaseURL, cfg.Ledger.Timeout)
		log.Info("using http ledger gateway", "url", cfg.Ledger.BaseURL)
	} else {
		gw = ledger.NewSimulated()
		log.Info("using simulated ledger gateway")
	}

	// Audit trail, optionally mirrored to Kafka.
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("creating kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events mirrored to kafka", "topic", cfg.AuditTopic)
	}
	auditor := audit.NewRecorder(audit.NewInMemoryEventStore(), sink, log)

	provenanceSvc := provenance.New(products, actors, shipments, gw, cache, log, m).
		WithLedgerTimeout(cfg.Ledger.Timeout)
	approvalSvc := approval.New(products, actors, gw, auditor, log, m)
	catalogSvc := catalog.New(products, actors, shipments, auditor, log)

	reconciler := approval.NewReconciler(approvalSvc, cfg.ReconcileInterval, log)
	go reconciler.Run(ctx)

	adminVerifier := middleware.NewJWTAdminVerifier(cfg.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Timeout(30 * time.Second))

	provenancehandler.New(provenanceSvc, log).Register(r)
	catalogH := cataloghandler.New(catalogSvc, log)
	catalogH.Register(r)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin(adminVerifier, log))
		approvalhandler.New(approvalSvc, log).Register(ar)
		catalogH.RegisterAdmin(ar)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("starting agritrace", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
