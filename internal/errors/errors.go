package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// QAError is the structured error type for docqa.
// It carries the code, classification and user-facing hints for an error.
type QAError struct {
	// Code is the unique error code (e.g., "ERR_402_DIMENSION_MISMATCH").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *QAError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *QAError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a QAError with the same code.
func (e *QAError) Is(target error) bool {
	if t, ok := target.(*QAError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *QAError) WithDetail(key, value string) *QAError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *QAError) WithSuggestion(suggestion string) *QAError {
	e.Suggestion = suggestion
	return e
}

// New creates a new QAError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *QAError {
	return &QAError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a QAError from an existing error.
func Wrap(code string, err error) *QAError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is matching. Matching is by code, so any QAError
// carrying the same code satisfies errors.Is against these.
var (
	ErrEmptyCorpus          = New(ErrCodeEmptyCorpus, "empty corpus", nil)
	ErrDimensionMismatch    = New(ErrCodeDimensionMismatch, "dimension mismatch", nil)
	ErrInconsistentSnapshot = New(ErrCodeInconsistentSnapshot, "inconsistent snapshot", nil)
	ErrEmptySentenceSet     = New(ErrCodeEmptySentenceSet, "empty sentence set", nil)
	ErrSnapshotNotFound     = New(ErrCodeSnapshotNotFound, "snapshot not found", nil)
	ErrSnapshotLocked       = New(ErrCodeSnapshotLocked, "snapshot locked", nil)
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *QAError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *QAError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *QAError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *QAError {
	return New(ErrCodeInternal, message, cause)
}

// EmptyCorpusError reports a vector space fit over zero documents.
func EmptyCorpusError() *QAError {
	return New(ErrCodeEmptyCorpus, "cannot fit vector space on an empty corpus", nil).
		WithSuggestion("Check that the ingestion inputs produced at least one chunk")
}

// DimensionMismatchError reports a query vector whose dimension differs from the index.
func DimensionMismatchError(expected, got int) *QAError {
	return New(ErrCodeDimensionMismatch,
		fmt.Sprintf("query dimension %d does not match index dimension %d", got, expected), nil).
		WithDetail("expected", strconv.Itoa(expected)).
		WithDetail("got", strconv.Itoa(got)).
		WithSuggestion("The snapshot is stale or mismatched; rebuild it with 'docqa build'")
}

// InconsistentSnapshotError reports model, index and chunks that are not aligned.
func InconsistentSnapshotError(message string) *QAError {
	return New(ErrCodeInconsistentSnapshot, message, nil).
		WithSuggestion("Rebuild the snapshot with 'docqa build'")
}

// EmptySentenceSetError reports a retrieved chunk with no extractable sentences.
func EmptySentenceSetError(chunkID uint64) *QAError {
	return New(ErrCodeEmptySentenceSet,
		fmt.Sprintf("chunk %d has no sentences", chunkID), nil).
		WithDetail("chunk_id", strconv.FormatUint(chunkID, 10))
}

// asQAError finds the first QAError in err's chain.
func asQAError(err error) (*QAError, bool) {
	var qe *QAError
	if stderrors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if qe, ok := asQAError(err); ok {
		return qe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if qe, ok := asQAError(err); ok {
		return qe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a QAError.
// Returns empty string if err carries no QAError.
func GetCode(err error) string {
	if qe, ok := asQAError(err); ok {
		return qe.Code
	}
	return ""
}

// GetCategory extracts the category from a QAError.
func GetCategory(err error) Category {
	if qe, ok := asQAError(err); ok {
		return qe.Category
	}
	return ""
}
