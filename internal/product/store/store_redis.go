package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog/internal/product/models"
)

const productKeyPrefix = "catalog:product:"

// Backend is the store the cache reads through to.
type Backend interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, q models.ListQuery) (*models.ListResult, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
}

// CachedStore caches single-product reads in Redis. Writes go to the backend
// first, then the key is rewritten (update) or deleted (delete). Cache
// failures are logged and bypassed; the backend stays authoritative. If both
// the rewrite and the delete fail, readers may see the previous value until
// the key's TTL expires.
type CachedStore struct {
	backend Backend
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

func NewCached(backend Backend, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{backend: backend, client: client, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *CachedStore) Create(ctx context.Context, p *models.Product) error {
	return c.backend.Create(ctx, p)
}

func (c *CachedStore) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Product
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached product", "product_id", id)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
	}

	return c.FindFresh(ctx, id)
}

// FindFresh reads the backend, skipping the cache, and refreshes the key.
func (c *CachedStore) FindFresh(ctx context.Context, id int64) (*models.Product, error) {
	p, err := c.backend.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.put(ctx, p); err != nil {
		c.logger.WarnContext(ctx, "product cache write failed", "product_id", id, "error", err)
	}
	return p, nil
}

func (c *CachedStore) put(ctx context.Context, p *models.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(p.ID), b, c.ttl).Err()
}

func (c *CachedStore) List(ctx context.Context, q models.ListQuery) (*models.ListResult, error) {
	return c.backend.List(ctx, q)
}

func (c *CachedStore) Update(ctx context.Context, p *models.Product) error {
	if err := c.backend.Update(ctx, p); err != nil {
		return err
	}
	if err := c.put(ctx, p); err != nil {
		c.logger.WarnContext(ctx, "product cache refresh failed", "product_id", p.ID, "error", err)
		c.evict(ctx, p.ID)
	}
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, id int64) error {
	if err := c.backend.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *CachedStore) evict(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		c.logger.ErrorContext(ctx, "product cache evict failed; cached value may be stale until ttl",
			"product_id", id,
			"ttl", c.ttl,
			"error", err,
		)
	}
}
