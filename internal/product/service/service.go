// Package service implements product CRUD and writes the outcome audit
// records for every mutation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"catalog/internal/platform/metrics"
	"catalog/internal/product/models"
	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, q models.ListQuery) (*models.ListResult, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
}

// freshReader is implemented by caching stores that can bypass their cache.
type freshReader interface {
	FindFresh(ctx context.Context, id int64) (*models.Product, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) int64
}

// Service is the product business logic. Mutations require an identity in
// the context; it becomes the actor of the outcome record.
type Service struct {
	store   Store
	auditor AuditRecorder
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, auditor AuditRecorder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		auditor: auditor,
		logger:  logger,
		tracer:  otel.Tracer("catalog/product"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateDiff is the details payload of a product_updated record.
type UpdateDiff struct {
	Old *models.Product `json:"old"`
	New *models.Product `json:"new"`
}

func (s *Service) Create(ctx context.Context, in models.Input) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Create")
	defer span.End()

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ts := now(ctx)
	p := &models.Product{CreatedAt: ts, UpdatedAt: ts}
	in.Apply(p)
	if err := s.store.Create(ctx, p); err != nil {
		return nil, s.storeFailure(ctx, span, err, "failed to create product")
	}
	span.SetAttributes(attribute.Int64("product.id", p.ID))

	s.metrics.IncrementProductMutation("create")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     audit.ActionProductCreated,
		EntityType: audit.EntityProduct,
		EntityID:   audit.Int64(p.ID),
		Details:    p,
	})
	return p, nil
}

func (s *Service) List(ctx context.Context, q models.ListQuery) (*models.ListResult, error) {
	ctx, span := s.tracer.Start(ctx, "product.List")
	defer span.End()

	res, err := s.store.List(ctx, q)
	if err != nil {
		return nil, s.storeFailure(ctx, span, err, "failed to list products")
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupFailure(ctx, span, err)
	}
	return p, nil
}

// Update replaces every field of the product. The outcome record carries the
// pre-update snapshot and the stored result.
func (s *Service) Update(ctx context.Context, id int64, in models.Input) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "product.Update", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	old, err := s.current(ctx, id)
	if err != nil {
		return nil, s.lookupFailure(ctx, span, err)
	}

	updated := *old
	in.Apply(&updated)
	updated.UpdatedAt = now(ctx)
	if err := s.store.Update(ctx, &updated); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, s.storeFailure(ctx, span, err, "failed to update product")
	}

	s.metrics.IncrementProductMutation("update")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     audit.ActionProductUpdated,
		EntityType: audit.EntityProduct,
		EntityID:   audit.Int64(id),
		Details:    UpdateDiff{Old: old, New: &updated},
	})
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "product.Delete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.lookupFailure(ctx, span, err)
	}

	s.metrics.IncrementProductMutation("delete")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     audit.ActionProductDeleted,
		EntityType: audit.EntityProduct,
		EntityID:   audit.Int64(id),
	})
	return nil
}

// now is truncated to what Postgres stores, so both stores return equal values.
func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

func actorFrom(ctx context.Context) (int64, error) {
	identity := requestcontext.Identity(ctx)
	if identity == nil {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return identity.ID, nil
}

func (s *Service) lookupFailure(ctx context.Context, span trace.Span, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "product not found")
	}
	return s.storeFailure(ctx, span, err, "failed to load product")
}

func (s *Service) storeFailure(ctx context.Context, span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// current reads the authoritative copy of a product, bypassing any cache, so
// the old side of an update diff is never stale.
func (s *Service) current(ctx context.Context, id int64) (*models.Product, error) {
	if fr, ok := s.store.(freshReader); ok {
		return fr.FindFresh(ctx, id)
	}
	return s.store.FindByID(ctx, id)
}
