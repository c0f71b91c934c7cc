package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind int

const (
	// ErrRequest means the request could not be built (bad URL, unencodable body).
	ErrRequest ErrorKind = iota
	// ErrNetwork covers dial, TLS, timeout and read failures.
	ErrNetwork
	// ErrHTTPStatus is a non-2xx response.
	ErrHTTPStatus
	// ErrDecode is a response body with the wrong shape or invalid JSON.
	ErrDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRequest:
		return "Request"
	case ErrNetwork:
		return "Network"
	case ErrHTTPStatus:
		return "HTTPStatus"
	case ErrDecode:
		return "Decode"
	default:
		return "Unknown"
	}
}

// Error is returned by every Client call.
type Error struct {
	Kind   ErrorKind
	Op     string
	URL    string
	Status int
	Cause  error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s %s", e.Kind, e.Op, e.URL))
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.Status))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}
	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a transport error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind == kind
	}
	return false
}

var retryableStatus = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// IsRetryable reports whether a request failing with err may be repeated.
// Only gateway errors (502/503/504) are; network failures, timeouts, other
// statuses and decode failures surface on the first attempt.
func IsRetryable(err error) bool {
	var tErr *Error
	if !errors.As(err, &tErr) {
		return false
	}
	return tErr.Kind == ErrHTTPStatus && retryableStatus[tErr.Status]
}
