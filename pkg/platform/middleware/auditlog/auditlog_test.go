package auditlog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/pkg/domain"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/requestcontext"
)

type captureRecorder struct {
	entries []audit.Entry
}

func (c *captureRecorder) Record(_ context.Context, e audit.Entry) int64 {
	c.entries = append(c.entries, e)
	return int64(len(c.entries))
}

func newRouter(rec Recorder, identity *domain.Identity, seen *string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if identity != nil {
				req = req.WithContext(requestcontext.WithIdentity(req.Context(), identity))
			}
			next.ServeHTTP(w, req)
		})
	})
	handler := func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		*seen = string(b)
		w.WriteHeader(http.StatusOK)
	}
	r.With(Attempt(rec, logger, audit.ActionCreateProductAttempt, audit.EntityProduct)).Post("/products", handler)
	r.With(Attempt(rec, logger, audit.ActionUpdateProductAttempt, audit.EntityProduct)).Put("/products/{id}", handler)
	return r
}

func TestAttempt(t *testing.T) {
	operator := &domain.Identity{ID: 2, Username: "op", Role: domain.RoleOperator}

	t.Run("records details and restores the body", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		body := `{"name":"Widget","category":"Tools","price":9.99,"stock":5}`
		req := httptest.NewRequest(http.MethodPost, "/products?source=ui", strings.NewReader(body))
		req.Header.Set("User-Agent", "curl/8.4.0")
		rr := httptest.NewRecorder()

		newRouter(rec, operator, &seen).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, body, seen)
		require.Len(t, rec.entries, 1)
		e := rec.entries[0]
		assert.Equal(t, int64(2), e.ActorID)
		assert.Equal(t, audit.ActionCreateProductAttempt, e.Action)
		assert.Equal(t, audit.EntityProduct, e.EntityType)
		assert.Nil(t, e.EntityID)

		d, ok := e.Details.(Details)
		require.True(t, ok)
		assert.Equal(t, http.MethodPost, d.Method)
		assert.Equal(t, "/products?source=ui", d.Path)
		assert.JSONEq(t, body, string(d.Body))
		assert.Empty(t, d.Params)
		assert.Equal(t, "curl/8.4.0", d.Client.UserAgent)
	})

	t.Run("entity id comes from the route parameter", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		req := httptest.NewRequest(http.MethodPut, "/products/17", strings.NewReader(`{"id":99}`))

		newRouter(rec, operator, &seen).ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, rec.entries, 1)
		require.NotNil(t, rec.entries[0].EntityID)
		assert.Equal(t, int64(17), *rec.entries[0].EntityID)
		assert.Equal(t, map[string]string{"id": "17"}, rec.entries[0].Details.(Details).Params)
	})

	t.Run("entity id falls back to the body id", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"id":42,"name":"x"}`))

		newRouter(rec, operator, &seen).ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, rec.entries, 1)
		require.NotNil(t, rec.entries[0].EntityID)
		assert.Equal(t, int64(42), *rec.entries[0].EntityID)
	})

	t.Run("non-numeric route id yields a null entity id", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		req := httptest.NewRequest(http.MethodPut, "/products/abc", strings.NewReader(`{}`))

		newRouter(rec, operator, &seen).ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, rec.entries, 1)
		assert.Nil(t, rec.entries[0].EntityID)
	})

	t.Run("non-JSON body is stored as a string", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`name=widget`))

		newRouter(rec, operator, &seen).ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, rec.entries, 1)
		raw, err := json.Marshal(rec.entries[0].Details)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"body":"name=widget"`)
		assert.Equal(t, "name=widget", seen)
	})

	t.Run("no identity skips recording but still calls the handler", func(t *testing.T) {
		rec := &captureRecorder{}
		var seen string
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"x"}`))

		newRouter(rec, nil, &seen).ServeHTTP(rr, req)

		assert.Empty(t, rec.entries)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, `{"name":"x"}`, seen)
	})
}

func TestCaptureBodyIsBounded(t *testing.T) {
	full := strings.Repeat("a", 3*maxCapturedBody)
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(full))

	raw, err := captureBody(req)
	require.NoError(t, err)
	assert.Len(t, raw, maxCapturedBody+1)

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, full, string(rest))
	assert.NoError(t, req.Body.Close())
}

func TestAttemptOversizedBodyReachesHandler(t *testing.T) {
	rec := &captureRecorder{}
	var seen string
	full := `{"name":"` + strings.Repeat("x", 2*maxCapturedBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(full))

	newRouter(rec, &domain.Identity{ID: 2, Role: domain.RoleOperator}, &seen).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, full, seen)
	require.Len(t, rec.entries, 1)
	d := rec.entries[0].Details.(Details)
	assert.True(t, json.Valid(d.Body))
	assert.LessOrEqual(t, len(d.Body), 2*maxCapturedBody)
}
