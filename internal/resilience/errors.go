// Package resilience classifies per-resource failures so callers can skip a
// page, record or target without aborting the run.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind identifies how a failure is handled by the run.
type Kind int

const (
	// KindUnknown is any error that carries no classification.
	KindUnknown Kind = iota
	// KindTransientFetch covers network failures, timeouts and 4xx/5xx
	// responses. The resource is skipped; nothing is retried.
	KindTransientFetch
	// KindElementNotFound means a required UI control was absent after every
	// locator strategy. The current search target yields nothing.
	KindElementNotFound
	// KindIncompleteRecord means a mandatory field was empty or the region
	// gate failed. The record is discarded silently.
	KindIncompleteRecord
	// KindInfrastructure is an unrecoverable setup failure. It ends the run.
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindTransientFetch:
		return "transient_fetch"
	case KindElementNotFound:
		return "element_not_found"
	case KindIncompleteRecord:
		return "incomplete_record"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Error attaches a Kind (and, for fetches, the HTTP status) to a cause.
type Error struct {
	Kind       Kind
	Err        error
	StatusCode int
	// Reason is a short machine-friendly label, e.g. "missing_email".
	Reason string
}

func (e *Error) Error() string {
	if e.Err == nil {
		if e.Reason != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
		}
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as a transient fetch failure with an
// optional HTTP status code.
func NewTransientError(err error, statusCode int) *Error {
	return &Error{Kind: KindTransientFetch, Err: err, StatusCode: statusCode}
}

// NewElementNotFound wraps a missing-control failure.
func NewElementNotFound(err error) *Error {
	return &Error{Kind: KindElementNotFound, Err: err}
}

// NewIncompleteRecord reports a discarded record with the given reason.
func NewIncompleteRecord(reason string) *Error {
	return &Error{Kind: KindIncompleteRecord, Reason: reason}
}

// NewInfrastructure wraps a fatal setup failure.
func NewInfrastructure(err error) *Error {
	return &Error{Kind: KindInfrastructure, Err: err}
}

// KindOf returns the Kind of the first classified error in err's chain.
// Unclassified network errors are reported as KindTransientFetch.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if IsTransient(err) {
		return KindTransientFetch
	}
	return KindUnknown
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// ReasonOf returns the Reason of the first classified error in err's chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return IsKind(err, KindInfrastructure)
}

// IsTransient returns true if the error (or any error in its chain) is a
// transient fetch Error, or if it matches common transient error patterns
// (network timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindTransientFetch
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsErrorStatus reports whether an HTTP status code is an error-class
// response that the crawler treats as a failed fetch.
func IsErrorStatus(statusCode int) bool {
	return statusCode >= 400
}
