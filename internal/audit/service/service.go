// Package service answers queries over the audit ledger.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/requestcontext"
)

// Service is read-only: the ledger is written exclusively by audit.Recorder.
type Service struct {
	store  audit.Store
	logger *slog.Logger
	tracer trace.Tracer
}

func New(store audit.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("catalog/audit"),
	}
}

// List returns matching records newest first, each with its actor joined.
// A window whose start is after its end matches nothing.
func (s *Service) List(ctx context.Context, f audit.Filter) (*audit.Page, error) {
	ctx, span := s.tracer.Start(ctx, "audit.List")
	defer span.End()

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return &audit.Page{}, nil
	}

	page, err := s.store.List(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list audit records")
		s.logger.ErrorContext(ctx, "failed to list audit records",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit records")
	}
	return page, nil
}
