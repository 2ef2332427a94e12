package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fp4"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	loginTotal       *prometheus.CounterVec
	verifyTotal      *prometheus.CounterVec
	notifyFailures   prometheus.Counter
	rateLimitWindows *prometheus.GaugeVec

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	certNotAfter prometheus.Gauge
	certReloads  *prometheus.CounterVec
}

// NewRegistry creates a registry with the fp4 metrics and the Go runtime
// and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_total",
			Help:      "Login link requests by internal outcome",
		}, []string{"outcome"}),
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "verify_total",
			Help:      "Login link redemptions by outcome",
		}, []string{"outcome"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Login link emails that could not be handed to the delivery service",
		}),
		rateLimitWindows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "windows",
			Help:      "Identities with a tracked rate limit window",
		}, []string{"limiter"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		certNotAfter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "cert_not_after_seconds",
			Help:      "Expiry of the serving certificate as a Unix timestamp",
		}),
		certReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tls",
			Name:      "cert_reloads_total",
			Help:      "Serving certificate reloads by result",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.loginTotal,
		r.verifyTotal,
		r.notifyFailures,
		r.rateLimitWindows,
		r.requestsTotal,
		r.requestDuration,
		r.certNotAfter,
		r.certReloads,
	)
	return r
}

// MustRegister adds extra collectors, such as a DBStatsCollector.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// LoginOutcome counts one login request.
func (r *Registry) LoginOutcome(outcome string) {
	r.loginTotal.WithLabelValues(outcome).Inc()
}

// VerifyOutcome counts one redemption attempt.
func (r *Registry) VerifyOutcome(outcome string) {
	r.verifyTotal.WithLabelValues(outcome).Inc()
}

// NotifyFailed counts one failed delivery.
func (r *Registry) NotifyFailed() {
	r.notifyFailures.Inc()
}

// RateLimitWindows records the live window count of a limiter.
func (r *Registry) RateLimitWindows(limiter string, n int) {
	r.rateLimitWindows.WithLabelValues(limiter).Set(float64(n))
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CertReloaded records a serving certificate reload. On failure the
// previous certificate stays in use and its expiry is kept.
func (r *Registry) CertReloaded(notAfter time.Time, err error) {
	if err != nil {
		r.certReloads.WithLabelValues("error").Inc()
		return
	}
	r.certReloads.WithLabelValues("ok").Inc()
	r.certNotAfter.Set(float64(notAfter.Unix()))
}
