package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrTimeout         = errors.New("upstream timeout")
	ErrRateLimited     = errors.New("upstream rate limited")
	ErrMalformedOutput = errors.New("malformed upstream output")
	ErrUpstream        = errors.New("upstream failure")
	ErrNotConfigured   = errors.New("no text-generation provider configured")
)

// UpstreamError carries provider details. Kind is one of the sentinels above
// and is matched by errors.Is.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Kind       error
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether another attempt could succeed: timeouts, rate
// limits, malformed output and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrMalformedOutput) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode == 0 || ue.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// kindForStatus maps an HTTP status to a sentinel.
func kindForStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrUpstream
	}
}

// transportError wraps a failure that happened before any response arrived.
func transportError(provider string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamError{Provider: provider, Kind: ErrTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &UpstreamError{Provider: provider, Kind: ErrUpstream, Err: err}
}
