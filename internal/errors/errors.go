package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the imgcache
// CLI. These codes signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorDownload = 3   // Indicates a download failure.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags
// or values. It indicates that the application cannot proceed due to
// incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// DownloadError represents a failed image download. It carries the request
// URL, the HTTP status (zero when the failure happened before a response
// arrived), and the underlying cause when one exists.
type DownloadError struct {
	// URL is the resource that failed to download.
	URL string
	// StatusCode is the HTTP status of the failed response, or 0.
	StatusCode int
	// Cause is the underlying transport error, or nil for status failures.
	Cause error
}

// Error returns a formatted message describing the download failure.
func (e DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("download %s failed", e.URL)
}

// Unwrap returns the underlying transport error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
func (e DownloadError) Unwrap() error { return e.Cause }

// TimeoutError represents an operation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies
// which field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// SpaceError represents a disk capacity exceeded condition. It captures the
// requested, available, and limit byte counts for diagnostic purposes.
type SpaceError struct {
	// Requested is the number of bytes the blob needed.
	Requested uint64
	// Available is the number of bytes currently free on the volume.
	Available uint64
	// Limit is the configured cache size limit in bytes.
	Limit uint64
}

// Error returns a formatted message describing the space error.
func (e SpaceError) Error() string {
	return fmt.Sprintf("space error: requested %d bytes, available %d bytes (limit: %d)", e.Requested, e.Available, e.Limit)
}

// CorruptIndexError indicates the persisted metadata index could not be
// decoded. The store recovers by starting from an empty index; the error is
// surfaced so callers can log the discard.
type CorruptIndexError struct {
	// Path is the index file that failed to decode.
	Path string
	// Cause is the decoding error.
	Cause error
}

// Error returns a formatted message describing the corrupt index.
func (e CorruptIndexError) Error() string {
	return fmt.Sprintf("corrupt metadata index %s: %v", e.Path, e.Cause)
}

// Unwrap returns the decoding error.
func (e CorruptIndexError) Unwrap() error { return e.Cause }

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline
// exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the process exit code the CLI should report.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	}
	var (
		configErr   ConfigError
		downloadErr DownloadError
		timeoutErr  TimeoutError
	)
	switch {
	case errors.As(err, &configErr):
		return ExitErrorConfig
	case errors.As(err, &downloadErr):
		return ExitErrorDownload
	case errors.As(err, &timeoutErr):
		return ExitErrorTimeout
	}
	return ExitErrorGeneric
}
