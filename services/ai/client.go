// Package aisvc is the gateway to the Python AI microservices: exercise generation, RAG chat
// and sentiment analysis.
//
// Every operation returns either its typed result or an *Error. Calls are retried with an
// exponential backoff, except when the upstream rejects the request with a 4xx status.
package aisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

const tracerName = "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is safe for concurrent use: it only holds the immutable registry and thread-safe collaborators.
type Client struct {
	registry *Registry
	http     Doer
	logger   core.Logger
	metrics  MetricsSink
	tracer   trace.Tracer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewClient returns a gateway over the services of `registry`.
func NewClient(registry *Registry, logger core.Logger) *Client {
	return &Client{
		registry: registry,
		http:     &http.Client{},
		logger:   logger,
		metrics:  NopMetrics{},
		tracer:   otel.Tracer(tracerName),
		sleep:    sleepContext,
	}
}

// WithHTTPClient replaces the transport.
func (c *Client) WithHTTPClient(doer Doer) *Client {
	c.http = doer
	return c
}

// WithMetrics sets the metrics sink.
func (c *Client) WithMetrics(m MetricsSink) *Client {
	if m == nil {
		m = NopMetrics{}
	}
	c.metrics = m
	return c
}

// WithTracer replaces the tracer obtained from the global otel provider.
func (c *Client) WithTracer(t trace.Tracer) *Client {
	c.tracer = t
	return c
}

// Registry returns the service registry of the client.
func (c *Client) Registry() *Registry {
	return c.registry
}

// callInto performs the call and decodes the upstream body into out.
func (c *Client) callInto(ctx context.Context, service, endpoint string, opts callOptions, out interface{}) error {
	raw, err := c.call(ctx, service, endpoint, opts)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:       KindUnknown,
			Message:    "unexpected response from " + service + " service",
			StatusCode: http.StatusInternalServerError,
			Service:    service,
			Err:        err,
		}
	}
	return nil
}

// Request calls any endpoint of any service with the default timeout and retries of that service.
func (c *Client) Request(ctx context.Context, service, endpoint, method string, data interface{}) (json.RawMessage, error) {
	return c.call(ctx, service, endpoint, callOptions{method: strings.ToUpper(method), data: data})
}

// GenerateExercise generates one exercise with the legacy endpoint.
func (c *Client) GenerateExercise(ctx context.Context, subject, difficulty, exerciseType, additionalContext string) (ExerciseResult, error) {
	var res ExerciseResult
	err := c.callInto(ctx, ServiceExercise, "/generate-exercise", callOptions{
		data: ExerciseRequest{
			Subject:           subject,
			Difficulty:        difficulty,
			ExerciseType:      exerciseType,
			AdditionalContext: additionalContext,
		},
		timeout: c.registry.timeouts.Exercise,
	}, &res)
	return res, err
}

// GenerateExercises generates `count` exercises at once.
func (c *Client) GenerateExercises(ctx context.Context, subject, difficulty string, count int) (BatchExerciseResult, error) {
	var res BatchExerciseResult
	err := c.callInto(ctx, ServiceExercise, "/generate", callOptions{
		data: BatchExerciseRequest{Subject: subject, Difficulty: difficulty, Count: count},
	}, &res)
	return res, err
}

// CheckAnswer asks the exercise service whether `student` matches `expected`.
func (c *Client) CheckAnswer(ctx context.Context, expected, student string) (CheckAnswerResult, error) {
	var res CheckAnswerResult
	err := c.callInto(ctx, ServiceExercise, "/check-answer", callOptions{
		data: CheckAnswerRequest{Expected: expected, Student: student},
	}, &res)
	return res, err
}

// Subjects lists the subjects known to the exercise database.
func (c *Client) Subjects(ctx context.Context) (SubjectsResult, error) {
	var res SubjectsResult
	err := c.callInto(ctx, ServiceExercise, "/subjects", callOptions{
		method:  http.MethodGet,
		timeout: c.registry.timeouts.Subjects,
	}, &res)
	return res, err
}

// Chat sends a message to the RAG tutor. history is forwarded as is.
func (c *Client) Chat(ctx context.Context, message string, sessionID *string, history []ChatTurn) (ChatResult, error) {
	if history == nil {
		history = []ChatTurn{}
	}
	var res ChatResult
	err := c.callInto(ctx, ServiceChat, "/chat", callOptions{
		data:    ChatRequest{Message: message, SessionID: sessionID, History: history},
		timeout: c.registry.timeouts.Chat,
	}, &res)
	return res, err
}

// Search queries the knowledge base for the `k` closest documents.
func (c *Client) Search(ctx context.Context, query string, k int) (SearchResult, error) {
	var res SearchResult
	err := c.callInto(ctx, ServiceChat, "/search", callOptions{
		data:    SearchRequest{Query: query, K: k},
		timeout: c.registry.timeouts.Search,
	}, &res)
	return res, err
}

// AnalyzeSentiment classifies one text.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (SentimentResult, error) {
	var res SentimentResult
	err := c.callInto(ctx, ServiceSentiment, "/analyze", callOptions{
		data:    SentimentRequest{Text: text},
		timeout: c.registry.timeouts.Sentiment,
	}, &res)
	return res, err
}

// BatchAnalyzeSentiment classifies reviews and aggregates the results.
// An empty list yields an empty aggregate without calling the service.
func (c *Client) BatchAnalyzeSentiment(ctx context.Context, reviews []string) (BatchSentimentResult, error) {
	if len(reviews) == 0 {
		if _, err := c.registry.Lookup(ServiceSentiment); err != nil {
			return BatchSentimentResult{}, err
		}
		return BatchSentimentResult{Results: []SentimentResult{}}, nil
	}

	var res BatchSentimentResult
	err := c.callInto(ctx, ServiceSentiment, "/batch-analyze", callOptions{
		data:    BatchSentimentRequest{Reviews: reviews},
		timeout: c.registry.timeouts.BatchSentiment,
	}, &res)
	if err == nil && res.Results == nil {
		res.Results = []SentimentResult{}
	}
	return res, err
}

// Sentiment implements core.SentimentAnalyzer on top of AnalyzeSentiment.
func (c *Client) Sentiment(ctx context.Context, text string) (core.Sentiment, error) {
	res, err := c.AnalyzeSentiment(ctx, text)
	if err != nil {
		return core.Sentiment{}, err
	}
	label := res.Sentiment
	if label == "" {
		label = res.Label
	}
	return core.Sentiment{Label: label, Confidence: res.Confidence}, nil
}
