package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	audithandler "catalog/internal/audit/handler"
	auditservice "catalog/internal/audit/service"
	authhandler "catalog/internal/auth/handler"
	"catalog/internal/auth/hasher"
	authservice "catalog/internal/auth/service"
	jwttoken "catalog/internal/jwt_token"
	"catalog/internal/platform/config"
	"catalog/internal/platform/httpserver"
	"catalog/internal/platform/logger"
	"catalog/internal/platform/metrics"
	producthandler "catalog/internal/product/handler"
	productservice "catalog/internal/product/service"
	httptransport "catalog/internal/transport/http"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/audit/publisher"
	"catalog/pkg/platform/middleware/cors"
	request "catalog/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(level)
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET is unset; signing tokens with the development secret", "env", cfg.Env)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New(nil)
	recorderOpts := []audit.Option{audit.WithObserver(m)}
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		kafka, err := publisher.NewKafka(brokers, cfg.AuditKafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		recorderOpts = append(recorderOpts, audit.WithPublisher(publisher.NewBreaker(kafka)))
		log.Info("audit records published to kafka", "topic", cfg.AuditKafkaTopic, "brokers", brokers)
	}
	recorder := audit.NewRecorder(st.ledger, log, recorderOpts...)

	tokens := jwttoken.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	auth, err := authservice.New(st.users, st.roles, hasher.New(cfg.BcryptCost), tokens, recorder, log,
		authservice.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	if err := auth.EnsureRoles(ctx); err != nil {
		return err
	}

	products := productservice.New(st.products, recorder, log, productservice.WithMetrics(m))
	ledger := auditservice.New(st.ledger, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Verifier: jwttoken.NewJWTServiceAdapter(tokens),
		Resolver: auth,
		Recorder: recorder,
		Health:   st.health,
		CORS: cors.Config{
			AllowedOrigins: cfg.CORSOrigins(),
			ExposedHeaders: []string{request.HeaderRequestID},
			MaxAge:         600,
		},
	},
		authhandler.New(auth, log),
		producthandler.New(products, log),
		audithandler.New(ledger, log),
	)

	srv := httpserver.New(cfg.HTTPAddr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting catalog", "addr", cfg.HTTPAddr, "env", cfg.Env, "storage", st.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}
