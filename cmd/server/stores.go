package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"catalog/internal/auth/store/role"
	"catalog/internal/auth/store/user"
	authservice "catalog/internal/auth/service"
	"catalog/internal/platform/config"
	"catalog/internal/platform/postgres"
	"catalog/internal/platform/redis"
	productservice "catalog/internal/product/service"
	productstore "catalog/internal/product/store"
	httptransport "catalog/internal/transport/http"
	audit "catalog/pkg/platform/audit"
	auditmemory "catalog/pkg/platform/audit/store/memory"
	auditpg "catalog/pkg/platform/audit/store/postgres"
)

type stores struct {
	kind     string
	users    authservice.UserStore
	roles    authservice.RoleStore
	products productservice.Store
	ledger   audit.Store
	health   []httptransport.HealthCheck
	closers  []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStores selects Postgres when DATABASE_URL is set and in-memory stores
// otherwise, then layers the Redis product cache on top when REDIS_URL is set.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}

	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL, "up"); err != nil {
			return nil, err
		}
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		st.usePostgres(db)
	} else {
		if !cfg.IsDevelopment() {
			log.Warn("DATABASE_URL not set; using in-memory stores, data will not survive a restart")
		}
		st.useMemory()
	}

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		st.closers = append(st.closers, rdb.Close)
		st.products = productstore.NewCached(st.products, rdb.Client, cfg.ProductCacheTTL, log)
		st.health = append(st.health, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
		log.Info("product cache enabled", "ttl", cfg.ProductCacheTTL)
	}
	return st, nil
}

func (s *stores) usePostgres(db *sql.DB) {
	s.kind = "postgres"
	s.users = user.NewPostgres(db)
	s.roles = role.NewPostgres(db)
	s.products = productstore.NewPostgres(db)
	s.ledger = auditpg.New(db)
	s.health = append(s.health, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
}

func (s *stores) useMemory() {
	s.kind = "memory"
	users := user.New()
	roles := role.New()
	s.users = users
	s.roles = roles
	s.products = productstore.NewInMemory()
	s.ledger = auditmemory.NewInMemoryStore(authservice.NewDirectory(users, roles))
}
