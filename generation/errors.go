package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned by a backend that has no credentials.
var ErrNotConfigured = errors.New("generation: backend not configured")

// QuotaError reports that the provider refused the call for quota or billing
// reasons. Retrying soon will not help.
type QuotaError struct {
	err error
}

func (e *QuotaError) Error() string { return e.err.Error() }
func (e *QuotaError) Unwrap() error { return e.err }

// NewQuotaError wraps err as a quota failure.
func NewQuotaError(err error) error { return &QuotaError{err: err} }

// TransientError represents a temporary failure (network, timeout, 5xx,
// empty answer) that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps err as transient.
func NewTransientError(err error) error { return &TransientError{err: err} }

// Kind is the failure category of a generation attempt.
type Kind int

const (
	KindNone Kind = iota
	KindNotConfigured
	KindQuota
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotConfigured:
		return "not_configured"
	case KindQuota:
		return "quota"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// Classify maps err to its Kind. Typed errors win; provider API errors are
// classified by status; anything else is transient.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindNotConfigured
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return KindQuota
	}
	var te *TransientError
	if errors.As(err, &te) {
		return KindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	if code, status, ok := apiStatus(err); ok {
		switch {
		case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
			return KindQuota
		case code == http.StatusUnauthorized || code == http.StatusForbidden ||
			status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
			return KindNotConfigured
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") || strings.Contains(msg, "resource_exhausted") {
		return KindQuota
	}
	return KindTransient
}

func apiStatus(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}

// wrap tags a raw provider error with its Kind so callers that only check the
// typed errors see the same classification.
func wrap(err error) error {
	switch Classify(err) {
	case KindNotConfigured:
		if errors.Is(err, ErrNotConfigured) {
			return err
		}
		return errors.Join(ErrNotConfigured, err)
	case KindQuota:
		var qe *QuotaError
		if errors.As(err, &qe) {
			return err
		}
		return NewQuotaError(err)
	default:
		var te *TransientError
		if errors.As(err, &te) {
			return err
		}
		return NewTransientError(err)
	}
}
