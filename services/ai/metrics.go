package aisvc

import "time"

// MetricsSink receives gateway observations. Implementations must be safe for concurrent use
// and must not block.
type MetricsSink interface {
	// AttemptCompleted is called after every physical HTTP attempt. statusCode is 0 when no response was received.
	AttemptCompleted(service, endpoint string, attempt, statusCode int, duration time.Duration)
	// RetryScheduled is called before sleeping ahead of attempt `attempt` (>= 1).
	RetryScheduled(service, endpoint string, attempt int, delay time.Duration)
	// CallCompleted is called once per logical call; outcome is "success" or the error code.
	CallCompleted(service, endpoint, outcome string, duration time.Duration)
	// HealthChecked is called once per service by the aggregate health check.
	HealthChecked(service string, healthy bool)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

var _ MetricsSink = NopMetrics{}

func (NopMetrics) AttemptCompleted(string, string, int, int, time.Duration) {}
func (NopMetrics) RetryScheduled(string, string, int, time.Duration)       {}
func (NopMetrics) CallCompleted(string, string, string, time.Duration)     {}
func (NopMetrics) HealthChecked(string, bool)                               {}
