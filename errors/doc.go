// Package errors provides structured errors with explicit retry semantics.
//
// Every Error carries an ErrorCode identifying the failure and an
// ErrorCategory deciding its default handling. Transient and resource
// errors are retryable; permanent and internal errors are not. Individual
// errors can override the category default with WithRetryable.
//
//	err := errors.Validation("response missing required field",
//	    errors.WithCause(cause))
//	if errors.IsRetryable(err) {
//	    // try again
//	}
//
// Errors interoperate with the standard library: Unwrap exposes the cause,
// and Wrap preserves code/category/retryability across wrapping while
// mapping context.DeadlineExceeded and context.Canceled to their codes.
package errors
