package aisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

func healthyServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		jsonHandler(http.StatusOK, body)(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CheckHealth_AllHealthy(t *testing.T) {
	ex := healthyServer(t, `{"model":"mistral","documents":120}`)
	chat := healthyServer(t, `{"ok":true}`)
	sent := healthyServer(t, `{}`)

	c, doer, rec := newTestClient(t, core.AIConfig{ExerciseURL: ex.URL, ChatURL: chat.URL, SentimentURL: sent.URL})

	report := c.CheckHealth(context.Background())
	assert.Equal(t, StatusHealthy, report.Overall)
	assert.True(t, report.Healthy())
	assert.Equal(t, http.StatusOK, report.HTTPStatus())
	assert.Equal(t, ex.URL, report.Services.ExerciseGenerator.URL)
	assert.Equal(t, 3, doer.count("/health"))
	assert.Empty(t, rec.delays)

	out, err := json.Marshal(report)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	services := decoded["services"].(map[string]interface{})
	exercise := services["exerciseGenerator"].(map[string]interface{})
	assert.Equal(t, "healthy", exercise["status"])
	assert.Equal(t, "mistral", exercise["model"])
	assert.Equal(t, float64(120), exercise["documents"])
	assert.Equal(t, ex.URL, exercise["url"])
	assert.NotContains(t, exercise, "error")
	assert.Equal(t, true, services["chatbot"].(map[string]interface{})["ok"])
}

func TestClient_CheckHealth_OneServiceHangs(t *testing.T) {
	hanging := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(hanging.Close)
	chat := healthyServer(t, `{}`)
	sent := healthyServer(t, `{}`)

	c, doer, rec := newTestClient(t, core.AIConfig{
		ExerciseURL:   hanging.URL,
		ChatURL:       chat.URL,
		SentimentURL:  sent.URL,
		HealthTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	report := c.CheckHealth(context.Background())
	assert.Less(t, int64(time.Since(start)), int64(2*time.Second))

	assert.Equal(t, StatusDown, report.Services.ExerciseGenerator.Status)
	assert.Contains(t, report.Services.ExerciseGenerator.Error, "timed out")
	assert.Equal(t, StatusHealthy, report.Services.Chatbot.Status)
	assert.Equal(t, StatusHealthy, report.Services.SentimentAnalysis.Status)
	assert.Equal(t, StatusDegraded, report.Overall)
	assert.Equal(t, http.StatusServiceUnavailable, report.HTTPStatus())

	// health checks are never retried
	assert.Equal(t, 3, doer.count("/health"))
	assert.Empty(t, rec.delays)
}

func TestClient_CheckHealth_AllDown(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, `{}`))
	url := srv.URL
	srv.Close()

	c, _, _ := newTestClient(t, allAt(url))

	report := c.CheckHealth(context.Background())
	assert.Equal(t, StatusDegraded, report.Overall)
	for _, h := range []ServiceHealth{report.Services.ExerciseGenerator, report.Services.Chatbot, report.Services.SentimentAnalysis} {
		assert.Equal(t, StatusDown, h.Status)
		assert.Equal(t, url, h.URL)
		assert.NotEmpty(t, h.Error)
	}

	out, err := json.Marshal(report.Services.Chatbot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"`+url+`","status":"down","error":"chat service is not available. Please ensure the Python API is running."}`, string(out))
}

func TestClient_CheckHealth_UpstreamStatusFieldDoesNotOverride(t *testing.T) {
	srv := healthyServer(t, `{"status":"ok","version":"1.2"}`)

	c, _, _ := newTestClient(t, allAt(srv.URL))

	report := c.CheckHealth(context.Background())
	assert.Equal(t, StatusHealthy, report.Overall)
	assert.Equal(t, StatusHealthy, report.Services.Chatbot.Status)
	assert.JSONEq(t, `"1.2"`, string(report.Services.Chatbot.Details["version"]))
}
