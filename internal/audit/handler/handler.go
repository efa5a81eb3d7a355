package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/httputil"
	request "catalog/pkg/platform/middleware/request"
	"catalog/pkg/platform/paging"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for ledger queries.
type Service interface {
	List(ctx context.Context, f audit.Filter) (*audit.Page, error)
}

// Handler serves GET /audit.
type Handler struct {
	audit  Service
	logger *slog.Logger
}

func New(audit Service, logger *slog.Logger) *Handler {
	return &Handler{audit: audit, logger: logger}
}

// Routes lists the endpoints; the router attaches policy.
func (h *Handler) Routes() []httputil.Route {
	return []httputil.Route{
		{Method: http.MethodGet, Pattern: "/audit", Handler: h.handleList},
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page := paging.FromQuery(q)

	filter, err := parseFilter(q)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid audit query", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	res, err := h.audit.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records", "error", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, paging.NewResponse(page, res.Total, res.Records))
}

const dateOnly = "2006-01-02"

// parseFilter reads userId, action, entityType, entityId, startDate and
// endDate. Empty values are no constraint; malformed ones are bad requests.
func parseFilter(q url.Values) (audit.Filter, error) {
	var f audit.Filter
	var err error

	if f.ActorID, err = optionalID(q, "userId"); err != nil {
		return f, err
	}
	if f.EntityID, err = optionalID(q, "entityId"); err != nil {
		return f, err
	}
	f.Action = strings.TrimSpace(q.Get("action"))
	f.EntityType = strings.TrimSpace(q.Get("entityType"))

	if f.From, err = optionalTime(q, "startDate", false); err != nil {
		return f, err
	}
	if f.To, err = optionalTime(q, "endDate", true); err != nil {
		return f, err
	}
	return f, nil
}

func optionalID(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := domain.ParseID(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, key+" must be a positive integer")
	}
	return &id, nil
}

// optionalTime accepts RFC3339 or YYYY-MM-DD. A date-only end bound covers
// the whole day.
func optionalTime(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, key+" must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}
