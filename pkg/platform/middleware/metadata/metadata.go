// Package metadata describes the client behind a request for forensic audit
// details.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Client is the caller's network and user-agent fingerprint.
type Client struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Mobile    bool   `json:"mobile"`
	Bot       bool   `json:"bot,omitempty"`
}

// FromRequest extracts the client fingerprint from r.
func FromRequest(r *http.Request) Client {
	c := Client{IP: ClientIPFromRequest(r)}
	raw := r.Header.Get("User-Agent")
	if raw == "" {
		return c
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	c.UserAgent = raw
	c.Browser = strings.TrimSpace(name + " " + version)
	c.OS = ua.OS()
	c.Mobile = ua.Mobile()
	c.Bot = ua.Bot()
	return c
}

// ClientIPFromRequest returns the originating client IP, preferring proxy
// headers over the socket address.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
