package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/resilience"
)

// Error is the typed failure surfaced after a provider call gives up. It
// identifies the provider, carries a machine-readable reason for the
// reporting layer, and wraps the last underlying cause.
type Error struct {
	ProviderID string
	Reason     model.FailureReason
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.ProviderID, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure reason is worth retrying: rate
// limits, server errors and network-level trouble. Auth, validation and
// malformed-response failures are final.
func (e *Error) Retryable() bool {
	switch e.Reason {
	case model.FailureRateLimited, model.FailureServerError, model.FailureNetwork, model.FailureTimeout:
		return true
	default:
		return false
	}
}

// StatusError is an HTTP-status-bearing failure normalized out of the
// individual SDK clients so classification lives in one place.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// classify maps a raw invoker error to a machine-readable failure reason.
func classify(err error) model.FailureReason {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return model.FailureCanceled
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return model.FailureCircuitOpen
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == 429:
			return model.FailureRateLimited
		case se.Code == 401 || se.Code == 403:
			return model.FailureUnauthorized
		case se.Code == 408 || se.Code >= 500:
			return model.FailureServerError
		default:
			return model.FailureInvalidRequest
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return model.FailureTimeout
		}
		return model.FailureNetwork
	}

	if resilience.IsTransient(err) {
		return model.FailureNetwork
	}

	return model.FailureMalformedResponse
}

// wrapError builds the typed *Error for a provider from a raw cause.
func wrapError(providerID string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{
		ProviderID: providerID,
		Reason:     classify(err),
		Err:        err,
	}
}
