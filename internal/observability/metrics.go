package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	principalCache      *prometheus.CounterVec
	documentsUploaded   *prometheus.CounterVec
	creditTransactions  *prometheus.CounterVec
	paymentsSettled     *prometheus.CounterVec
	thirdPartyRequests  *prometheus.CounterVec
}

// Config holds configuration for metrics.
type Config struct {
	Enabled   bool
	Namespace string
}

func DefaultConfig() *Config {
	return &Config{Enabled: true, Namespace: "greenledger"}
}

// New builds collectors on a private registry so tests can create many.
func New(cfg *Config) *Metrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if !cfg.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	ns := cfg.Namespace

	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		principalCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "principal_cache_lookups_total",
			Help:      "Principal cache lookups by result",
		}, []string{"result"}),
		documentsUploaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "documents_uploaded_total",
			Help:      "Document uploads by outcome",
		}, []string{"outcome"}),
		creditTransactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "credit_transactions_total",
			Help:      "Credit purchases and uses recorded",
		}, []string{"type"}),
		paymentsSettled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "payments_settled_total",
			Help:      "Stripe PaymentIntents settled by resulting credit status",
		}, []string{"status"}),
		thirdPartyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "third_party_requests_total",
			Help:      "Calls to external services",
		}, []string{"service", "outcome"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) PrincipalCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.principalCache.WithLabelValues("hit").Inc()
		return
	}
	m.principalCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) DocumentUpload(outcome string) {
	if m == nil {
		return
	}
	m.documentsUploaded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CreditTransaction(txType string) {
	if m == nil {
		return
	}
	m.creditTransactions.WithLabelValues(txType).Inc()
}

func (m *Metrics) PaymentSettled(status string) {
	if m == nil {
		return
	}
	m.paymentsSettled.WithLabelValues(status).Inc()
}

// ThirdParty counts one call to service; err decides the outcome label.
func (m *Metrics) ThirdParty(service string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.thirdPartyRequests.WithLabelValues(service, outcome).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is used by tests to gather values.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
