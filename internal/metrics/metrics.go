// Package metrics exposes Prometheus collectors for the cache gate, logo
// lookups, the HTTP surface and the invalidation worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracepay/internal/cache"
)

const (
	namespace = "tracepay"

	keyLabelName    = "key"
	resultLabelName = "result"
	kindLabelName   = "kind"
	methodLabelName = "method"
	routeLabelName  = "route"
	codeLabelName   = "code"
	reasonLabelName = "reason"
)

// Metrics owns a private registry so tests and multiple binaries do not
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	cacheStores      *prometheus.CounterVec
	logoLookups      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	securityEvents   *prometheus.CounterVec
	invalidations    *prometheus.CounterVec
	regionalExported prometheus.Gauge
}

var _ cache.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "cache gate freshness checks by key and result (hit or miss)",
		}, []string{keyLabelName, resultLabelName}),
		cacheStores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "stores_total",
			Help:      "cache gate writes by key and result (ok or error)",
		}, []string{keyLabelName, resultLabelName}),
		logoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "logo",
			Name:      "lookups_total",
			Help:      "logo lookups by registry kind and result (match or miss)",
		}, []string{kindLabelName, resultLabelName}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{methodLabelName, routeLabelName, codeLabelName}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{methodLabelName, routeLabelName}),
		securityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "security_events_total",
			Help:      "requests flagged by the security middleware by reason (rate_limited or suspicious)",
		}, []string{reasonLabelName}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "invalidations_total",
			Help:      "cache invalidation messages handled by result (ok, error or rejected)",
		}, []string{resultLabelName}),
		regionalExported: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "regional_rows_exported",
			Help:      "rows written by the last regional stats export",
		}),
	}
	m.registry.MustRegister(
		m.cacheLookups,
		m.cacheStores,
		m.logoLookups,
		m.httpRequests,
		m.httpLatency,
		m.securityEvents,
		m.invalidations,
		m.regionalExported,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit(key string)  { m.cacheLookups.WithLabelValues(key, "hit").Inc() }
func (m *Metrics) CacheMiss(key string) { m.cacheLookups.WithLabelValues(key, "miss").Inc() }

func (m *Metrics) CacheStore(key string, err error) {
	m.cacheStores.WithLabelValues(key, result(err)).Inc()
}

// LogoLookup counts a lookup against the kind registry.
func (m *Metrics) LogoLookup(kind string, matched bool) {
	res := "miss"
	if matched {
		res = "match"
	}
	m.logoLookups.WithLabelValues(kind, res).Inc()
}

// ObserveHTTP records one served request. route is the mux pattern, not the
// raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// SecurityEvent counts a request flagged by the security middleware.
func (m *Metrics) SecurityEvent(reason string) {
	m.securityEvents.WithLabelValues(reason).Inc()
}

// Invalidation counts a handled invalidation message. rejected marks
// messages that could not be decoded.
func (m *Metrics) Invalidation(err error, rejected bool) {
	if rejected {
		m.invalidations.WithLabelValues("rejected").Inc()
		return
	}
	m.invalidations.WithLabelValues(result(err)).Inc()
}

// RegionalExported records the row count of the last export.
func (m *Metrics) RegionalExported(rows int) {
	m.regionalExported.Set(float64(rows))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
