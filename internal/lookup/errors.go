// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an adapter failure for the retry controller.
type ErrorKind int

const (
	// KindTransient covers network errors and 5xx responses.
	KindTransient ErrorKind = iota

	// KindRateLimited covers HTTP 429 and service-specific throttle replies.
	KindRateLimited

	// KindTimeout covers per-attempt deadline expiry.
	KindTimeout

	// KindNotFound means the service answered but holds no matching record.
	KindNotFound

	// KindBadRequest means the query itself was rejected.
	KindBadRequest

	// KindAuth means the credential was missing or refused.
	KindAuth
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindAuth:
		return "auth"
	default:
		return "transient"
	}
}

// Error is a classified adapter failure.
type Error struct {
	Kind    ErrorKind
	Adapter string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Adapter, e.Message, e.Kind)
}

// Retryable reports whether the failure is worth retrying with backoff.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransient, KindRateLimited, KindTimeout:
		return true
	default:
		return false
	}
}

// Errf builds a classified adapter error.
func Errf(adapter string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Adapter: adapter, Message: fmt.Sprintf(format, args...)}
}

// statusError maps an unexpected HTTP status to a classified error.
// 429 is rate-limited, other 4xx are terminal, 5xx are transient.
func statusError(adapter string, status int) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return Errf(adapter, KindRateLimited, "HTTP %d", status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Errf(adapter, KindAuth, "HTTP %d", status)
	case status == http.StatusNotFound:
		return Errf(adapter, KindNotFound, "HTTP %d", status)
	case status >= 400 && status < 500:
		return Errf(adapter, KindBadRequest, "HTTP %d", status)
	default:
		return Errf(adapter, KindTransient, "HTTP %d", status)
	}
}

// AsError extracts a classified *Error from err, if it carries one.
func AsError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
