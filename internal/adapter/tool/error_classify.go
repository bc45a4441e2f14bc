package tool

import (
	"errors"
	"strings"

	"concierge/internal/domain"
)

// retryableSentinels lists domain errors that indicate transient failures.
// Nothing retries automatically; the annotation tells the model the call
// might succeed if the user asks again.
var retryableSentinels = []error{
	domain.ErrRateLimit,
	domain.ErrProviderFailure,
	domain.ErrContextOverflow,
}

// retryablePatterns are substrings in error messages that indicate transient
// failures. Checked case-insensitively.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"timeout",
	"deadline exceeded",
	"temporarily unavailable",
	"service unavailable",
	"try again",
	"unavailable",
}

// classifyToolError returns true if the error is transient and the lookup
// may succeed on retry. Returns false for nil, permanent, or unknown errors.
func classifyToolError(err error) bool {
	if err == nil {
		return false
	}

	for _, sentinel := range retryableSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	// String-based fallback for errors without sentinel wrapping.
	lower := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}
