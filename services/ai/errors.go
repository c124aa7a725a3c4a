package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies every failure the gateway can report.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidService
	KindServiceUnavailable
	KindTimeout
	KindNetwork
	KindServiceError
)

var kindNames = map[Kind]string{
	KindUnknown:            "UNKNOWN",
	KindInvalidService:     "INVALID_SERVICE",
	KindServiceUnavailable: "SERVICE_UNAVAILABLE",
	KindTimeout:            "TIMEOUT",
	KindNetwork:            "NETWORK_ERROR",
	KindServiceError:       "SERVICE_ERROR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is the only error type returned by the gateway operations.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Service    string
	Err        error // underlying failure, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the wire name of the error kind, e.g. "TIMEOUT".
func (e *Error) Code() string {
	return e.Kind.String()
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return IsRetryable(e.StatusCode)
}

// IsRetryable reports whether a failed attempt that ended with statusCode is worth retrying.
// Client errors (4xx) are not transient.
func IsRetryable(statusCode int) bool {
	return statusCode < http.StatusBadRequest || statusCode >= http.StatusInternalServerError
}

// AsError returns the gateway error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr, true
	}
	return nil, false
}

func newInvalidServiceError(service string) *Error {
	return &Error{
		Kind:       KindInvalidService,
		Message:    fmt.Sprintf("Unknown AI service: %s", service),
		StatusCode: http.StatusInternalServerError,
		Service:    service,
	}
}

// responseError is raised when the upstream answered with a status >= 400.
type responseError struct {
	statusCode int
	body       []byte
}

func (e *responseError) Error() string {
	return fmt.Sprintf("HTTP %d", e.statusCode)
}

// message extracts `error` or `message` from a JSON body.
func (e *responseError) message() string {
	var body struct {
		Error   interface{} `json:"error"`
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(e.body, &body); err == nil {
		if s := stringField(body.Error); s != "" {
			return s
		}
		if s := stringField(body.Message); s != "" {
			return s
		}
	}
	return e.Error()
}

func stringField(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// normalize maps any failure of a call to `service` into an *Error.
func normalize(err error, service string) *Error {
	if gErr, ok := AsError(err); ok {
		return gErr
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{
			Kind:       KindServiceUnavailable,
			Message:    fmt.Sprintf("%s service is not available. Please ensure the Python API is running.", service),
			StatusCode: http.StatusServiceUnavailable,
			Service:    service,
			Err:        err,
		}
	}

	if isTimeout(err) {
		return &Error{
			Kind:       KindTimeout,
			Message:    fmt.Sprintf("%s request timed out. The AI model may be loading. Please try again.", service),
			StatusCode: http.StatusGatewayTimeout,
			Service:    service,
			Err:        err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Kind:       KindNetwork,
			Message:    fmt.Sprintf("Cannot connect to %s service. Network error.", service),
			StatusCode: http.StatusServiceUnavailable,
			Service:    service,
			Err:        err,
		}
	}

	var respErr *responseError
	if errors.As(err, &respErr) {
		return &Error{
			Kind:       KindServiceError,
			Message:    respErr.message(),
			StatusCode: respErr.statusCode,
			Service:    service,
			Err:        err,
		}
	}

	msg := "Unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{
		Kind:       KindUnknown,
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
		Service:    service,
		Err:        err,
	}
}

// isTimeout covers deadlines, aborted calls and transport level timeouts.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
