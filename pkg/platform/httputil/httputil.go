// Package httputil holds the JSON envelope helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "catalog/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// Route describes one endpoint a handler exposes. The router decides which
// middleware guards it.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Key identifies the route in the policy table, e.g. "POST /products".
func (r Route) Key() string {
	return r.Method + " " + r.Pattern
}

type errorResponse struct {
	Error            string              `json:"error"`
	ErrorDescription string              `json:"error_description,omitempty"`
	Errors           []dErrors.Violation `json:"errors,omitempty"`
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidRole:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the JSON error envelope. Errors without a
// domain code, and internal errors, never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: string(dErrors.CodeInternal)}

	var de *dErrors.Error
	if errors.As(err, &de) && de.Code != dErrors.CodeInternal {
		resp.Error = string(de.Code)
		resp.ErrorDescription = de.Message
		resp.Errors = de.Violations
	}
	WriteJSON(w, StatusFor(dErrors.Code(resp.Error)), resp)
}

// WriteStatus writes a bare status with the error envelope for its code. Used
// by middleware that must not leak detail (401/403).
func WriteStatus(w http.ResponseWriter, code dErrors.Code) {
	WriteJSON(w, StatusFor(code), errorResponse{Error: string(code)})
}

// DecodeJSON decodes the request body into v. An empty body decodes as an
// empty object.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
