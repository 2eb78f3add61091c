// Package errors provides structured error handling for docqa.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (including snapshot consistency)
//   - 2XX: IO errors (files, snapshot storage)
//   - 4XX: Validation errors (corpus, queries, vectors)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound       = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid        = "ERR_102_CONFIG_INVALID"
	ErrCodeInconsistentSnapshot = "ERR_104_INCONSISTENT_SNAPSHOT"
	ErrCodeUnsupportedSnapshot  = "ERR_105_UNSUPPORTED_SNAPSHOT"

	// IO errors (200-299)
	ErrCodeFileNotFound     = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission   = "ERR_202_FILE_PERMISSION"
	ErrCodeSnapshotCorrupt  = "ERR_206_SNAPSHOT_CORRUPT"
	ErrCodeSnapshotNotFound = "ERR_207_SNAPSHOT_NOT_FOUND"
	ErrCodeSnapshotLocked   = "ERR_208_SNAPSHOT_LOCKED"
	ErrCodeSnapshotWrite    = "ERR_209_SNAPSHOT_WRITE"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeInvalidQuery      = "ERR_403_INVALID_QUERY"
	ErrCodeEmptyCorpus       = "ERR_407_EMPTY_CORPUS"
	ErrCodeEmptySentenceSet  = "ERR_408_EMPTY_SENTENCE_SET"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeVectorizeFailed = "ERR_502_VECTORIZE_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeChunkingFailed  = "ERR_504_CHUNKING_FAILED"
	ErrCodeIndexFailed     = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "104" from "ERR_104_INCONSISTENT_SNAPSHOT"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeEmptyCorpus,
		ErrCodeDimensionMismatch,
		ErrCodeInconsistentSnapshot,
		ErrCodeUnsupportedSnapshot,
		ErrCodeSnapshotCorrupt:
		return SeverityFatal
	case ErrCodeEmptySentenceSet:
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// A locked snapshot is being rewritten by a concurrent build.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeSnapshotLocked:
		return true
	default:
		return false
	}
}
