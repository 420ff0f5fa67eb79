// Command server wires the medledger service: configuration, storage,
// services, and the HTTP surface. Infrastructure addresses that are left
// unset fall back to in-memory implementations so the server runs standalone
// in development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"medledger/internal/access"
	"medledger/internal/audit"
	auditmem "medledger/internal/audit/store/memory"
	auditpg "medledger/internal/audit/store/postgres"
	"medledger/internal/audit/sink"
	"medledger/internal/authz"
	"medledger/internal/grant"
	grantmem "medledger/internal/grant/store/memory"
	grantpg "medledger/internal/grant/store/postgres"
	"medledger/internal/identity"
	"medledger/internal/identity/revocation"
	identitysvc "medledger/internal/identity/service"
	"medledger/internal/platform/config"
	"medledger/internal/platform/httpserver"
	"medledger/internal/platform/logger"
	"medledger/internal/platform/metrics"
	"medledger/internal/platform/postgres"
	redisclient "medledger/internal/platform/redis"
	"medledger/internal/platform/token"
	"medledger/internal/record"
	recordsvc "medledger/internal/record/service"
	httptransport "medledger/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var (
		users       identity.Store
		grants      grant.Store
		records     record.Store
		auditEvents audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		users = identity.NewPostgresStore(db)
		grants = grantpg.New(db)
		records = record.NewPostgresStore(db)
		auditEvents = auditpg.New(db)
		log.Info("storage: postgres")
	} else {
		users = identity.NewInMemoryStore()
		grants = grantmem.NewInMemoryStore()
		records = record.NewInMemoryStore()
		auditEvents = auditmem.NewInMemoryStore()
		log.Warn("storage: in-memory, data will not survive a restart")
	}

	var revocations revocation.List
	if cfg.RedisURL != "" {
		rc, err := redisclient.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		revocations = revocation.NewRedisList(rc.Client)
		log.Info("revocation list: redis")
	} else {
		revocations = revocation.NewInMemoryList()
		log.Warn("revocation list: in-memory")
	}

	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := sink.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := kafkaSink.Close(flushCtx); err != nil {
				log.Error("failed to flush audit sink", "error", err)
			}
		}()
		sinks = append(sinks, kafkaSink)
		log.Info("audit sink: kafka", "topic", cfg.AuditTopic)
	}

	recorder := audit.NewRecorder(auditEvents, log, m, sinks...)
	gate := authz.New(grants)

	handler := httptransport.NewHandler(
		log,
		users,
		access.NewService(grants, users, records, gate, recorder, m, log),
		recordsvc.NewService(records, gate, recorder, m, log),
		identitysvc.NewService(users, revocations, auditEvents, gate, recorder, log),
	)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Handler:     handler,
		Validator:   token.NewValidator(cfg.JWTSigningKey),
		Revocations: revocations,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting medledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
