package aisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// Health statuses
const (
	StatusHealthy  = "healthy"
	StatusDown     = "down"
	StatusDegraded = "degraded"
)

// ServiceHealth is the outcome of one health check.
// When healthy, the fields of the upstream body are kept in Details and flattened on marshalling.
type ServiceHealth struct {
	URL     string
	Status  string
	Error   string
	Details map[string]json.RawMessage
}

func (h ServiceHealth) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(h.Details)+3)
	for k, v := range h.Details {
		out[k] = v
	}
	out["url"] = h.URL
	out["status"] = h.Status
	if h.Status != StatusHealthy {
		out["error"] = h.Error
	}
	return json.Marshal(out)
}

func (h ServiceHealth) Healthy() bool {
	return h.Status == StatusHealthy
}

type ServicesHealth struct {
	ExerciseGenerator ServiceHealth `json:"exerciseGenerator"`
	Chatbot           ServiceHealth `json:"chatbot"`
	SentimentAnalysis ServiceHealth `json:"sentimentAnalysis"`
}

type HealthReport struct {
	Overall  string         `json:"overall"`
	Services ServicesHealth `json:"services"`
}

func (r HealthReport) Healthy() bool {
	return r.Overall == StatusHealthy
}

// HTTPStatus is 200 when every service is healthy and 503 otherwise.
func (r HealthReport) HTTPStatus() int {
	if r.Healthy() {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// CheckHealth checks the three services concurrently, once each and with the health timeout,
// and waits for all of them. It never fails: failed checks are reported as "down".
func (c *Client) CheckHealth(ctx context.Context) HealthReport {
	services := []string{ServiceExercise, ServiceChat, ServiceSentiment}
	results := make([]ServiceHealth, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(i int, svc string) {
			defer wg.Done()
			results[i] = c.checkService(ctx, svc)
			c.metrics.HealthChecked(svc, results[i].Healthy())
		}(i, svc)
	}
	wg.Wait()

	report := HealthReport{
		Overall: StatusHealthy,
		Services: ServicesHealth{
			ExerciseGenerator: results[0],
			Chatbot:           results[1],
			SentimentAnalysis: results[2],
		},
	}
	for _, res := range results {
		if !res.Healthy() {
			report.Overall = StatusDegraded
			break
		}
	}
	return report
}

func (c *Client) checkService(ctx context.Context, service string) ServiceHealth {
	var h ServiceHealth
	if ep, err := c.registry.Lookup(service); err == nil {
		h.URL = ep.BaseURL
	}

	raw, err := c.call(ctx, service, "/health", callOptions{
		method:  http.MethodGet,
		timeout: c.registry.timeouts.Health,
		retries: noRetries(),
	})
	if err != nil {
		h.Status = StatusDown
		h.Error = err.Error()
		if h.Error == "" {
			h.Error = "Service unavailable"
		}
		return h
	}

	h.Status = StatusHealthy
	var details map[string]json.RawMessage
	if json.Unmarshal(raw, &details) == nil {
		delete(details, "url")
		delete(details, "status")
		h.Details = details
	}
	return h
}
