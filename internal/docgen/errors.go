package docgen

import (
	"fmt"
	"strings"
)

// Sentinel errors for known LLM failure modes. Callers can check them with
// errors.Is to decide how to report a failed generation.
var (
	ErrRateLimited      = fmt.Errorf("llm rate limit exceeded")
	ErrQuotaExceeded    = fmt.Errorf("llm quota exceeded")
	ErrModelNotFound    = fmt.Errorf("llm model not found")
	ErrPermissionDenied = fmt.Errorf("llm permission denied")
)

// classifyError maps a raw provider error onto one of the sentinel errors
// based on its message, or wraps it as a generic LLM error.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	case strings.Contains(msg, "permission") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("llm error: %w", err)
	}
}
