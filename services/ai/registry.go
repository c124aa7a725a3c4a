package aisvc

import (
	"strings"
	"time"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// AI services
const (
	ServiceExercise  = "exercise"
	ServiceChat      = "chat"
	ServiceSentiment = "sentiment"
)

// Fallback timeouts, used when the configuration leaves a class unset.
const (
	DefaultHealthTimeout         = 5 * time.Second
	DefaultChatTimeout           = 300 * time.Second
	DefaultExerciseTimeout       = 120 * time.Second
	DefaultSentimentTimeout      = 30 * time.Second
	DefaultSearchTimeout         = 15 * time.Second
	DefaultSubjectsTimeout       = 30 * time.Second
	DefaultBatchSentimentTimeout = 60 * time.Second
	DefaultTimeout               = 60 * time.Second
)

// Endpoint is where a service lives and how long its calls may take by default.
type Endpoint struct {
	BaseURL string
	Timeout time.Duration
}

// Timeouts holds one timeout per call class.
type Timeouts struct {
	Health         time.Duration
	Chat           time.Duration
	Exercise       time.Duration
	Sentiment      time.Duration
	Search         time.Duration
	Subjects       time.Duration
	BatchSentiment time.Duration
	Default        time.Duration
}

// Registry resolves service names. It is never mutated after NewRegistry returns.
type Registry struct {
	endpoints map[string]Endpoint
	timeouts  Timeouts
}

// NewRegistry builds the registry from the AI configuration.
func NewRegistry(conf core.AIConfig) *Registry {
	t := Timeouts{
		Health:         orDefault(conf.HealthTimeout, DefaultHealthTimeout),
		Chat:           orDefault(conf.ChatTimeout, DefaultChatTimeout),
		Exercise:       orDefault(conf.ExerciseTimeout, DefaultExerciseTimeout),
		Sentiment:      orDefault(conf.SentimentTimeout, DefaultSentimentTimeout),
		Search:         orDefault(conf.SearchTimeout, DefaultSearchTimeout),
		Subjects:       orDefault(conf.SubjectsTimeout, DefaultSubjectsTimeout),
		BatchSentiment: orDefault(conf.BatchSentimentTimeout, DefaultBatchSentimentTimeout),
		Default:        orDefault(conf.DefaultTimeout, DefaultTimeout),
	}

	return &Registry{
		endpoints: map[string]Endpoint{
			ServiceExercise:  {BaseURL: cleanURL(conf.ExerciseURL, "http://localhost:5001"), Timeout: t.Exercise},
			ServiceChat:      {BaseURL: cleanURL(conf.ChatURL, "http://localhost:5002"), Timeout: t.Chat},
			ServiceSentiment: {BaseURL: cleanURL(conf.SentimentURL, "http://localhost:5003"), Timeout: t.Sentiment},
		},
		timeouts: t,
	}
}

// Lookup returns the endpoint of `service`, or an INVALID_SERVICE error.
func (r *Registry) Lookup(service string) (Endpoint, error) {
	ep, ok := r.endpoints[service]
	if !ok {
		return Endpoint{}, newInvalidServiceError(service)
	}
	if ep.Timeout <= 0 {
		ep.Timeout = r.timeouts.Default
	}
	return ep, nil
}

// Timeouts returns a copy of the timeout classes.
func (r *Registry) Timeouts() Timeouts {
	return r.timeouts
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func cleanURL(u, fallback string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return fallback
	}
	return u
}
