package metricsvc

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
)

func TestPrometheusSink_AI(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg, logsvc.NewNopLogger())

	sink.AttemptCompleted("chat", "/chat", 0, 503, time.Second)
	sink.AttemptCompleted("chat", "/chat", 1, 200, time.Second)
	sink.AttemptCompleted("chat", "/chat", 0, 0, time.Second)
	sink.RetryScheduled("chat", "/chat", 1, time.Second)
	sink.CallCompleted("chat", "/chat", "success", 2*time.Second)
	sink.CallCompleted("chat", "/chat", "TIMEOUT", time.Second)
	sink.HealthChecked("exercise", true)
	sink.HealthChecked("sentiment", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiAttemptsTotal.WithLabelValues("chat", "/chat", "5xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiAttemptsTotal.WithLabelValues("chat", "/chat", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiAttemptsTotal.WithLabelValues("chat", "/chat", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiRetriesTotal.WithLabelValues("chat", "/chat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiCallsTotal.WithLabelValues("chat", "/chat", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiCallsTotal.WithLabelValues("chat", "/chat", "TIMEOUT")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.aiServiceUp.WithLabelValues("exercise")))
	assert.Equal(t, float64(0), testutil.ToFloat64(sink.aiServiceUp.WithLabelValues("sentiment")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.aiCallDuration))
}

func TestPrometheusSink_HTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg, logsvc.NewNopLogger())

	sink.RequestServed("GET", "/v1/courses", 200, 10*time.Millisecond)
	sink.RequestServed("GET", "/v1/courses", 200, 20*time.Millisecond)
	sink.RequestServed("POST", "/v1/courses", 400, 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(sink.httpRequestsTotal.WithLabelValues("GET", "/v1/courses", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.httpRequestsTotal.WithLabelValues("POST", "/v1/courses", "400")))
}

func TestPrometheusSink_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheusSink(reg, logsvc.NewNopLogger())

	// a second sink on the same registry keeps working with unregistered collectors
	sink := NewPrometheusSink(reg, logsvc.NewNopLogger())
	assert.NotPanics(t, func() { sink.CallCompleted("chat", "/chat", "success", time.Second) })
}

func Test_statusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "error"},
		{200, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{504, "5xx"},
		{700, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.code))
	}
}
