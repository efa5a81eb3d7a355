package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"catalog/pkg/requestcontext"
)

func TestMiddlewarePinsOneInstant(t *testing.T) {
	var first, second time.Time
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	before := time.Now().UTC().Add(-time.Second)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, first.Equal(second))
	assert.Equal(t, time.UTC, first.Location())
	assert.Zero(t, first.Nanosecond()%int(time.Microsecond))
	assert.True(t, first.After(before))
}
