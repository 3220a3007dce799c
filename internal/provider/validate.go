package provider

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-engine/internal/model"
)

// Some providers wrap errors in a structurally valid 200 response and put
// the failure in the body text. A response whose opening text matches known
// error phrasing is rejected before any brand analysis runs on it.
//
// Only the head of the response is checked: a long legitimate answer that
// happens to discuss rate limits should not be discarded.
const errorPhrasingWindow = 200

type bodyErrorPattern struct {
	phrase string
	reason model.FailureReason
}

var bodyErrorPatterns = []bodyErrorPattern{
	{"rate limit", model.FailureRateLimited},
	{"too many requests", model.FailureRateLimited},
	{"quota exceeded", model.FailureRateLimited},
	{"unauthorized", model.FailureUnauthorized},
	{"invalid api key", model.FailureUnauthorized},
	{"authentication", model.FailureUnauthorized},
	{"internal server error", model.FailureServerError},
	{"service unavailable", model.FailureServerError},
	{"model is overloaded", model.FailureServerError},
}

// validateBody checks a successful response body for provider error
// phrasing. Returns nil for a clean body; otherwise an error whose
// classification matches the phrasing (rate-limit phrasing stays retryable,
// auth phrasing is final).
func validateBody(providerID, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &Error{
			ProviderID: providerID,
			Reason:     model.FailureMalformedResponse,
			Err:        eris.New("empty response body"),
		}
	}

	head := strings.ToLower(trimmed)
	if len(head) > errorPhrasingWindow {
		head = head[:errorPhrasingWindow]
	}

	for _, p := range bodyErrorPatterns {
		if strings.Contains(head, p.phrase) {
			return &Error{
				ProviderID: providerID,
				Reason:     p.reason,
				Err:        eris.Errorf("error phrasing in 200 response: %q", p.phrase),
			}
		}
	}

	return nil
}
