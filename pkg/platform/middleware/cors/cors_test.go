package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(cfg Config, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/products", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, reached
}

func TestMiddleware(t *testing.T) {
	allowList := Config{AllowedOrigins: []string{"https://shop.example", " "}, MaxAge: 600}

	t.Run("disabled without origins", func(t *testing.T) {
		rr, reached := serve(Config{}, http.MethodGet, "https://shop.example", false)
		assert.True(t, reached)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same-origin requests pass untouched", func(t *testing.T) {
		rr, reached := serve(allowList, http.MethodGet, "", false)
		assert.True(t, reached)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		rr, reached := serve(Config{AllowedOrigins: []string{Wildcard}}, http.MethodGet, "https://anywhere.test", false)
		assert.True(t, reached)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		rr, reached := serve(allowList, http.MethodGet, "https://shop.example", false)
		assert.True(t, reached)
		assert.Equal(t, "https://shop.example", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	})

	t.Run("unlisted origin is forbidden", func(t *testing.T) {
		rr, reached := serve(allowList, http.MethodGet, "https://evil.test", false)
		assert.False(t, reached)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.JSONEq(t, `{"error":"forbidden"}`, rr.Body.String())
	})

	t.Run("preflight is answered before the handler", func(t *testing.T) {
		rr, reached := serve(allowList, http.MethodOptions, "https://shop.example", true)
		assert.False(t, reached)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Authorization, Content-Type, X-Request-ID", rr.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("options without a request method is passed on", func(t *testing.T) {
		_, reached := serve(allowList, http.MethodOptions, "https://shop.example", false)
		assert.True(t, reached)
	})
}
