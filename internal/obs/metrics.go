// Package obs содержит метрики Prometheus веб-фронта.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
)

// Исходы загрузки сессии.
const (
	OutcomeAuthenticated   = "authenticated"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeDegraded        = "degraded"
	OutcomeSuperseded      = "superseded"
)

// Metrics — набор метрик портала. Нулевой указатель допустим: все методы
// тогда ничего не делают.
type Metrics struct {
	bootstrapTotal    *prometheus.CounterVec
	bootstrapDuration prometheus.Histogram
	exchangeFailures  prometheus.Counter
	gateDecisions     *prometheus.CounterVec
	instances         prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bootstrapTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswave_session_bootstrap_total",
			Help: "Session bootstrap runs by outcome.",
		}, []string{"outcome"}),
		bootstrapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newswave_session_bootstrap_duration_seconds",
			Help:    "Time spent in the CHECKING state.",
			Buckets: prometheus.DefBuckets,
		}),
		exchangeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newswave_session_exchange_failures_total",
			Help: "Failed identity-to-session token exchanges.",
		}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswave_gate_decisions_total",
			Help: "Authorization gate decisions by rule and result.",
		}, []string{"rule", "result"}),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newswave_instances",
			Help: "Browser instances currently held in memory.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newswave_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newswave_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.bootstrapTotal,
		m.bootstrapDuration,
		m.exchangeFailures,
		m.gateDecisions,
		m.instances,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

// BootstrapFinished учитывает завершение загрузки сессии.
func (m *Metrics) BootstrapFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.bootstrapTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSuperseded {
		m.bootstrapDuration.Observe(d.Seconds())
	}
}

// ExchangeFailed учитывает неудачный обмен токена.
func (m *Metrics) ExchangeFailed() {
	if m == nil {
		return
	}
	m.exchangeFailures.Inc()
}

// GateDecision учитывает решение гейта.
func (m *Metrics) GateDecision(rule string, allowed bool) {
	if m == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.gateDecisions.WithLabelValues(rule, result).Inc()
}

// InstanceOpened и InstanceClosed ведут счётчик живых экземпляров.
func (m *Metrics) InstanceOpened() {
	if m == nil {
		return
	}
	m.instances.Inc()
}

func (m *Metrics) InstanceClosed() {
	if m == nil {
		return
	}
	m.instances.Dec()
}

// Instrument — middleware для измерения RPS и latency по шаблону маршрута chi.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// statusWriter запоминает код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
