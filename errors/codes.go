package errors

// ErrorCategory classifies errors by their retry semantics.
type ErrorCategory string

const (
	// CategoryTransient indicates failures where another attempt may
	// succeed: timeouts, malformed model output, temporary unavailability.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry cannot help:
	// invalid input, authentication failures, unsupported operations.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates capacity problems: provider rate limits,
	// exhausted quotas.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates bugs and unexpected states.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable reports whether errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific failure types within categories.
type ErrorCode string

const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // Provider temporarily unavailable
	ErrCodeValidation  ErrorCode = "VALIDATION"  // Structured output failed schema validation
	ErrCodeNoObject    ErrorCode = "NO_OBJECT"   // Model produced no structured object

	// Permanent errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed or invalid input
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"  // Authentication failed
	ErrCodeBilling      ErrorCode = "BILLING"       // Billing, payment or quota problem
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Operation was canceled
	ErrCodeConfig       ErrorCode = "CONFIG"        // Invalid limiter or provider configuration
	ErrCodeStopped      ErrorCode = "STOPPED"       // Scheduler stopped before dispatch

	// Resource errors
	ErrCodeRateLimit ErrorCode = "RATE_LIMITED" // Provider rate limit exceeded

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // Recovered from panic
)

// codeDescriptions provides default messages for each code.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:      "operation timed out",
	ErrCodeUnavailable:  "provider temporarily unavailable",
	ErrCodeValidation:   "output failed schema validation",
	ErrCodeNoObject:     "no structured object produced",
	ErrCodeInvalidInput: "invalid input",
	ErrCodeUnauthorized: "authentication failed",
	ErrCodeBilling:      "billing or quota problem",
	ErrCodeCanceled:     "operation canceled",
	ErrCodeConfig:       "invalid configuration",
	ErrCodeStopped:      "scheduler stopped",
	ErrCodeRateLimit:    "rate limit exceeded",
	ErrCodeInternal:     "internal error",
	ErrCodePanic:        "recovered from panic",
}

// codeCategories maps codes to their default categories.
var codeCategories = map[ErrorCode]ErrorCategory{
	ErrCodeTimeout:      CategoryTransient,
	ErrCodeUnavailable:  CategoryTransient,
	ErrCodeValidation:   CategoryTransient,
	ErrCodeNoObject:     CategoryTransient,
	ErrCodeInvalidInput: CategoryPermanent,
	ErrCodeUnauthorized: CategoryPermanent,
	ErrCodeBilling:      CategoryPermanent,
	ErrCodeCanceled:     CategoryPermanent,
	ErrCodeConfig:       CategoryPermanent,
	ErrCodeStopped:      CategoryPermanent,
	ErrCodeRateLimit:    CategoryResource,
	ErrCodeInternal:     CategoryInternal,
	ErrCodePanic:        CategoryInternal,
}

// String returns the string representation of the code.
func (c ErrorCode) String() string {
	return string(c)
}

// Description returns the default message for the code.
func (c ErrorCode) Description() string {
	if d, ok := codeDescriptions[c]; ok {
		return d
	}
	return "unknown error"
}

// DefaultCategory returns the category a code belongs to.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	if cat, ok := codeCategories[c]; ok {
		return cat
	}
	return CategoryInternal
}
