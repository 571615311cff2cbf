package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies an upstream completion failure. Classification comes
// from the HTTP status and the API error code/type, not from sniffing error
// message text.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureRateLimited
	FailureConnection
	FailureTimeout
	FailureContextTooLong
	FailureAuth
	FailureContentPolicy
	FailureBadRequest
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureConnection:
		return "connection_failure"
	case FailureTimeout:
		return "timeout"
	case FailureContextTooLong:
		return "context_too_long"
	case FailureAuth:
		return "auth_failure"
	case FailureContentPolicy:
		return "content_policy_violation"
	case FailureBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// APIError is a classified upstream failure. Code and Type carry the API
// error body fields when the upstream returned one.
type APIError struct {
	Kind       FailureKind
	StatusCode int
	Code       string
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("openai http %d: %s", e.StatusCode, msg)
	}
	return "openai: " + msg
}

// Classify maps any error returned by Client.Complete to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureConnection
	}
	return FailureUnknown
}

// classifyResponse maps a non-2xx completion response to a FailureKind using
// the status code and the error body's code/type fields.
func classifyResponse(status int, code, typ string) FailureKind {
	switch {
	case status == 429:
		return FailureRateLimited
	case status == 401 || status == 403:
		return FailureAuth
	case status == 400 || status == 413:
		switch {
		case code == "context_length_exceeded" || code == "string_above_max_length":
			return FailureContextTooLong
		case code == "content_policy_violation" || code == "content_filter" || typ == "content_policy_violation":
			return FailureContentPolicy
		default:
			return FailureBadRequest
		}
	case status >= 500:
		return FailureConnection
	default:
		return FailureUnknown
	}
}
