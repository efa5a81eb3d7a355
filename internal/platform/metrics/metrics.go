package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Methods are safe
// on a nil receiver so components can run without metrics.
type Metrics struct {
	registry         *prometheus.Registry
	RequestDuration  *prometheus.HistogramVec
	AuditRecords     *prometheus.CounterVec
	ProductMutations *prometheus.CounterVec
	Logins           *prometheus.CounterVec
}

// New creates all metrics and registers them on reg. A nil reg gets a fresh
// registry, so tests can build as many instances as they like.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		AuditRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_audit_records_total",
			Help: "Audit ledger appends by action and result (ok, error)",
		}, []string{"action", "result"}),
		ProductMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_products_mutations_total",
			Help: "Successful product mutations by operation",
		}, []string{"operation"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_logins_total",
			Help: "Login attempts by result (success, failure)",
		}, []string{"result"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *Metrics) ObserveAuditRecord(action string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.AuditRecords.WithLabelValues(action, result).Inc()
}

func (m *Metrics) IncrementProductMutation(operation string) {
	if m == nil {
		return
	}
	m.ProductMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementLogin(success bool) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(loginResult(success)).Inc()
}

func loginResult(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
