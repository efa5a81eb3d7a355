// Package auditlog records an "attempt" ledger entry for a mutating route
// before its handler runs.
package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/middleware/metadata"
	request "catalog/pkg/platform/middleware/request"
	"catalog/pkg/requestcontext"
)

// maxCapturedBody bounds how much of a request body is copied into the ledger.
const maxCapturedBody = 64 << 10

// Recorder is the subset of audit.Recorder the interceptor needs.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) int64
}

// Details is the forensic snapshot stored with an attempt record.
type Details struct {
	Method string            `json:"method"`
	Path   string            `json:"path"`
	Body   json.RawMessage   `json:"body"`
	Params map[string]string `json:"params"`
	Client metadata.Client   `json:"client"`
}

// Attempt records action against entityType as the authenticated identity,
// then always calls next. Requests without an identity are passed through
// unrecorded.
func Attempt(recorder Recorder, logger *slog.Logger, action, entityType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := requestcontext.Identity(ctx)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := captureBody(r)
			if err != nil {
				logger.WarnContext(ctx, "failed to read request body for audit",
					"action", action,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
			}

			params := routeParams(r)
			recorder.Record(ctx, audit.Entry{
				ActorID:    identity.ID,
				Action:     action,
				EntityType: entityType,
				EntityID:   entityID(params, body),
				Details: Details{
					Method: r.Method,
					Path:   r.URL.RequestURI(),
					Body:   bodyJSON(body),
					Params: params,
					Client: metadata.FromRequest(r),
				},
			})

			next.ServeHTTP(w, r)
		})
	}
}

// replayBody serves the captured prefix and then the unread remainder.
type replayBody struct {
	io.Reader
	io.Closer
}

// captureBody reads at most maxCapturedBody+1 bytes and puts them back in
// front of the unread remainder so the handler sees the whole body.
func captureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCapturedBody+1))
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(raw), r.Body),
		Closer: r.Body,
	}
	return raw, err
}

func routeParams(r *http.Request) map[string]string {
	params := map[string]string{}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// entityID prefers the "id" route parameter and falls back to a numeric "id"
// field in a JSON object body.
func entityID(params map[string]string, body []byte) *int64 {
	if v, ok := params["id"]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	var payload struct {
		ID json.Number `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload.ID == "" {
		return nil
	}
	id, err := payload.ID.Int64()
	if err != nil {
		return nil
	}
	return &id
}

// bodyJSON embeds a JSON body as-is; anything else is stored as a string so
// the details payload stays valid JSON.
func bodyJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if len(body) > maxCapturedBody {
		body = body[:maxCapturedBody]
	}
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
