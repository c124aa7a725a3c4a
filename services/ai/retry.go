package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultRetries is the number of retries of a logical call, on top of the first attempt.
	DefaultRetries = 1

	backoffBase = time.Second
	maxBodySize = 10 << 20 // 10MB
)

type callOptions struct {
	method  string
	data    interface{}
	timeout time.Duration
	retries *int // nil: DefaultRetries
}

func noRetries() *int {
	n := 0
	return &n
}

// backoff returns the delay before attempt `attempt`: none before the first one, then 1s, 2s, 4s...
func backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return backoffBase << uint(attempt-1)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// call performs one logical call: up to retries+1 attempts with exponential backoff in between.
// 4xx responses are never retried.
func (c *Client) call(ctx context.Context, service, endpoint string, opts callOptions) (json.RawMessage, error) {
	ep, err := c.registry.Lookup(service)
	if err != nil {
		return nil, err
	}
	if opts.method == "" {
		opts.method = http.MethodPost
	}
	if opts.timeout <= 0 {
		opts.timeout = ep.Timeout
	}
	retries := DefaultRetries
	if opts.retries != nil && *opts.retries >= 0 {
		retries = *opts.retries
	}

	ctx, span := c.tracer.Start(ctx, "aisvc "+service+endpoint, trace.WithAttributes(
		attribute.String("ai.service", service),
		attribute.String("ai.endpoint", endpoint),
		attribute.String("http.method", opts.method),
		attribute.Int("ai.retries", retries),
	))
	defer span.End()

	start := time.Now()
	var (
		lastErr  *Error
		attempts int
	)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.logger.Info(
				fmt.Sprintf("retry %d/%d for %s%s", attempt, retries, service, endpoint),
				map[string]interface{}{"service": service, "endpoint": endpoint, "attempt": attempt, "delay": delay.String()},
			)
			c.metrics.RetryScheduled(service, endpoint, attempt, delay)
			if err = c.sleep(ctx, delay); err != nil {
				lastErr = normalize(err, service)
				break
			}
		}

		attempts++
		body, err := c.attempt(ctx, ep, service, endpoint, attempt, opts)
		if err == nil {
			span.SetAttributes(attribute.Int("ai.attempts", attempts))
			c.metrics.CallCompleted(service, endpoint, "success", time.Since(start))
			return body, nil
		}

		lastErr = normalize(err, service)
		if !lastErr.Retryable() {
			break
		}
	}

	span.SetAttributes(attribute.Int("ai.attempts", attempts), attribute.String("ai.error_code", lastErr.Code()))
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Code())
	c.metrics.CallCompleted(service, endpoint, lastErr.Code(), time.Since(start))
	return nil, lastErr
}

// attempt issues a single HTTP request bounded by opts.timeout.
func (c *Client) attempt(ctx context.Context, ep Endpoint, service, endpoint string, attempt int, opts callOptions) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, ep.BaseURL+endpoint, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.AttemptCompleted(service, endpoint, attempt, 0, time.Since(start))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.AttemptCompleted(service, endpoint, attempt, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &responseError{statusCode: resp.StatusCode, body: body}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s%s returned a non JSON body", service, endpoint)
	}
	return json.RawMessage(body), nil
}

// newRequest sends data as query parameters on GET and as a JSON body otherwise.
func (c *Client) newRequest(ctx context.Context, rawURL string, opts callOptions) (*http.Request, error) {
	if opts.method == http.MethodGet {
		q, err := queryValues(opts.data)
		if err != nil {
			return nil, err
		}
		if len(q) > 0 {
			rawURL += "?" + q.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, opts.method, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	data := opts.data
	if data == nil {
		data = struct{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, opts.method, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// queryValues flattens data (url.Values, a map or a struct) into query parameters.
func queryValues(data interface{}) (url.Values, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return d, nil
	case map[string]string:
		q := make(url.Values, len(d))
		for k, v := range d {
			q.Set(k, v)
		}
		return q, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	var fields map[string]interface{}
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	q := make(url.Values, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
		case []interface{}:
			for _, item := range val {
				q.Add(k, fmt.Sprint(item))
			}
		default:
			q.Set(k, fmt.Sprint(val))
		}
	}
	return q, nil
}
