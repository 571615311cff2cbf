package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// RequestError is a non-OK Bot API response.
type RequestError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  time.Duration
	Body        string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "telegram request failed"
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		desc = strings.TrimSpace(e.Body)
	}
	if e.StatusCode > 0 {
		if desc != "" {
			return fmt.Sprintf("telegram http %d: %s", e.StatusCode, desc)
		}
		return fmt.Sprintf("telegram http %d", e.StatusCode)
	}
	if desc != "" {
		return "telegram: " + desc
	}
	return "telegram request failed"
}

// TransportErrorKind is the closed set of send-failure categories the
// delivery pipeline reacts to.
type TransportErrorKind int

const (
	TransportUnknown TransportErrorKind = iota
	TransportRateLimited
	TransportMalformed
	TransportNetworkFailure
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportRateLimited:
		return "rate_limited"
	case TransportMalformed:
		return "malformed"
	case TransportNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// ClassifyTransportError maps a send error to its kind. For rate limits the
// advertised wait time is returned alongside.
func ClassifyTransportError(err error) (TransportErrorKind, time.Duration) {
	if err == nil {
		return TransportUnknown, 0
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode == 429 || reqErr.ErrorCode == 429:
			return TransportRateLimited, reqErr.RetryAfter
		case reqErr.StatusCode == 400 || reqErr.ErrorCode == 400:
			return TransportMalformed, 0
		case reqErr.StatusCode >= 500:
			return TransportNetworkFailure, 0
		default:
			return TransportUnknown, 0
		}
	}
	// Anything that never produced an API response is a connection-level
	// failure: DNS, refused, timed out.
	return TransportNetworkFailure, 0
}

// IsPollTimeout reports whether a GetUpdates error is just the long-poll
// window elapsing, which the poll loop treats as a normal empty result.
func IsPollTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}

// isMarkdownParseError reports whether the Bot API rejected the entity markup
// of a MarkdownV2 message. The description substring is the only signal the
// API provides for this rejection.
func isMarkdownParseError(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	desc := strings.ToLower(strings.TrimSpace(reqErr.Description))
	return strings.Contains(desc, "can't parse entit")
}
