package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"catalog/internal/product/models"
	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	"catalog/pkg/platform/httputil"
	request "catalog/pkg/platform/middleware/request"
	"catalog/pkg/platform/paging"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for product operations.
type Service interface {
	Create(ctx context.Context, in models.Input) (*models.Product, error)
	List(ctx context.Context, q models.ListQuery) (*models.ListResult, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, id int64, in models.Input) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the /products endpoints.
type Handler struct {
	products Service
	logger   *slog.Logger
}

func New(products Service, logger *slog.Logger) *Handler {
	return &Handler{products: products, logger: logger}
}

// Routes lists the endpoints; the router attaches policy.
func (h *Handler) Routes() []httputil.Route {
	return []httputil.Route{
		{Method: http.MethodGet, Pattern: "/products", Handler: h.handleList},
		{Method: http.MethodGet, Pattern: "/products/{id}", Handler: h.handleGet},
		{Method: http.MethodPost, Pattern: "/products", Handler: h.handleCreate},
		{Method: http.MethodPut, Pattern: "/products/{id}", Handler: h.handleUpdate},
		{Method: http.MethodDelete, Pattern: "/products/{id}", Handler: h.handleDelete},
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page := paging.FromQuery(q)
	sortBy, desc := models.ParseSort(q.Get("sortBy"), q.Get("order"))

	res, err := h.products.List(ctx, models.ListQuery{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   sortBy,
		Desc:     desc,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	})
	if err != nil {
		h.writeError(ctx, w, err, "failed to list products")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, paging.NewResponse(page, res.Total, res.Products))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := productID(r)
	if !ok {
		httputil.WriteError(w, errNotFound)
		return
	}
	p, err := h.products.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err, "failed to get product")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(ctx, w, err, "invalid product request")
		return
	}
	p, err := h.products.Create(ctx, in)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create product")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := productID(r)
	if !ok {
		httputil.WriteError(w, errNotFound)
		return
	}
	var in models.Input
	if err := httputil.DecodeJSON(r, &in); err != nil {
		h.writeError(ctx, w, err, "invalid product request")
		return
	}
	p, err := h.products.Update(ctx, id, in)
	if err != nil {
		h.writeError(ctx, w, err, "failed to update product")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := productID(r)
	if !ok {
		httputil.WriteError(w, errNotFound)
		return
	}
	if err := h.products.Delete(ctx, id); err != nil {
		h.writeError(ctx, w, err, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var errNotFound = dErrors.New(dErrors.CodeNotFound, "product not found")

// productID reads the {id} path param. Ids are positive integers, so anything
// else names a product that cannot exist.
func productID(r *http.Request) (int64, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
	}
	httputil.WriteError(w, err)
}
