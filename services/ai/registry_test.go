package aisvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg := NewRegistry(core.AIConfig{})

	tests := []struct {
		service     string
		wantURL     string
		wantTimeout time.Duration
	}{
		{ServiceExercise, "http://localhost:5001", 120 * time.Second},
		{ServiceChat, "http://localhost:5002", 300 * time.Second},
		{ServiceSentiment, "http://localhost:5003", 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			ep, err := reg.Lookup(tt.service)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, ep.BaseURL)
			assert.Equal(t, tt.wantTimeout, ep.Timeout)
		})
	}

	timeouts := reg.Timeouts()
	assert.Equal(t, 5*time.Second, timeouts.Health)
	assert.Equal(t, 15*time.Second, timeouts.Search)
	assert.Equal(t, 30*time.Second, timeouts.Subjects)
	assert.Equal(t, 60*time.Second, timeouts.BatchSentiment)
	assert.Equal(t, 60*time.Second, timeouts.Default)
}

func TestNewRegistry_Overrides(t *testing.T) {
	reg := NewRegistry(core.AIConfig{
		ExerciseURL:     "http://exercise:8000/",
		ChatURL:         " http://chat:8000 ",
		ChatTimeout:     10 * time.Second,
		ExerciseTimeout: 20 * time.Second,
	})

	ep, err := reg.Lookup(ServiceExercise)
	require.NoError(t, err)
	assert.Equal(t, "http://exercise:8000", ep.BaseURL)
	assert.Equal(t, 20*time.Second, ep.Timeout)

	ep, err = reg.Lookup(ServiceChat)
	require.NoError(t, err)
	assert.Equal(t, "http://chat:8000", ep.BaseURL)
	assert.Equal(t, 10*time.Second, ep.Timeout)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := NewRegistry(core.AIConfig{})

	_, err := reg.Lookup("vision")
	gErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidService, gErr.Kind)
	assert.Equal(t, 500, gErr.StatusCode)
	assert.Equal(t, "Unknown AI service: vision", gErr.Message)
}
