package metricsvc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	aisvc "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"
)

// PrometheusSink records AI gateway and HTTP API metrics.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	logger core.Logger

	// AI gateway
	aiAttemptsTotal *prometheus.CounterVec
	aiRetriesTotal  *prometheus.CounterVec
	aiCallsTotal    *prometheus.CounterVec
	aiCallDuration  *prometheus.HistogramVec
	aiServiceUp     *prometheus.GaugeVec

	// HTTP API
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ aisvc.MetricsSink = (*PrometheusSink)(nil)

func NewPrometheusSink(reg prometheus.Registerer, logger core.Logger) *PrometheusSink {
	s := &PrometheusSink{logger: logger}
	s.initAIMetrics(reg)
	s.initHTTPMetrics(reg)
	return s
}

func (s *PrometheusSink) initAIMetrics(reg prometheus.Registerer) {
	s.aiAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlearn_ai_attempts_total",
		Help: "Total number of HTTP attempts made to the AI services.",
	}, []string{"service", "endpoint", "status_class"})

	s.aiRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlearn_ai_retries_total",
		Help: "Total number of retries (excludes first attempts).",
	}, []string{"service", "endpoint"})

	s.aiCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlearn_ai_calls_total",
		Help: "Total number of logical AI calls by outcome.",
	}, []string{"service", "endpoint", "outcome"})

	s.aiCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartlearn_ai_call_duration_seconds",
		Help:    "Duration of logical AI calls in seconds, backoff included.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"service", "endpoint"})

	s.aiServiceUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smartlearn_ai_service_up",
		Help: "Result of the last health check (1 healthy, 0 down).",
	}, []string{"service"})

	s.register(reg, s.aiAttemptsTotal, "smartlearn_ai_attempts_total")
	s.register(reg, s.aiRetriesTotal, "smartlearn_ai_retries_total")
	s.register(reg, s.aiCallsTotal, "smartlearn_ai_calls_total")
	s.register(reg, s.aiCallDuration, "smartlearn_ai_call_duration_seconds")
	s.register(reg, s.aiServiceUp, "smartlearn_ai_service_up")
}

func (s *PrometheusSink) initHTTPMetrics(reg prometheus.Registerer) {
	s.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlearn_http_requests_total",
		Help: "Total number of HTTP requests served by the API.",
	}, []string{"method", "route", "code"})

	s.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartlearn_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	s.register(reg, s.httpRequestsTotal, "smartlearn_http_requests_total")
	s.register(reg, s.httpRequestDuration, "smartlearn_http_request_duration_seconds")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil && s.logger != nil {
		s.logger.Warn("metrics: failed to register "+name, err)
	}
}

// AI gateway

func (s *PrometheusSink) AttemptCompleted(service, endpoint string, _, statusCode int, _ time.Duration) {
	s.aiAttemptsTotal.WithLabelValues(service, endpoint, statusClass(statusCode)).Inc()
}

func (s *PrometheusSink) RetryScheduled(service, endpoint string, _ int, _ time.Duration) {
	s.aiRetriesTotal.WithLabelValues(service, endpoint).Inc()
}

func (s *PrometheusSink) CallCompleted(service, endpoint, outcome string, duration time.Duration) {
	s.aiCallsTotal.WithLabelValues(service, endpoint, outcome).Inc()
	s.aiCallDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (s *PrometheusSink) HealthChecked(service string, healthy bool) {
	var v float64
	if healthy {
		v = 1
	}
	s.aiServiceUp.WithLabelValues(service).Set(v)
}

// HTTP API

func (s *PrometheusSink) RequestServed(method, route string, code int, duration time.Duration) {
	s.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	s.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// statusClass maps a status code to "2xx".."5xx", or "error" when no response was received.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}
