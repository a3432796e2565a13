// Package errors provides structured error handling for Watchpost.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Network and transport errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network and transport errors.
	CategoryNetwork Category = "NETWORK"
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
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound  = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigParse     = "ERR_102_CONFIG_PARSE"
	ErrCodeConfigInvalid   = "ERR_103_CONFIG_INVALID"
	ErrCodeWatchDirMissing = "ERR_104_WATCH_DIR_MISSING"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeFileVanished   = "ERR_203_FILE_VANISHED"
	ErrCodeFileTooLarge   = "ERR_204_FILE_TOO_LARGE"
	ErrCodeDiskFull       = "ERR_205_DISK_FULL"
	ErrCodeHistoryCorrupt = "ERR_206_HISTORY_CORRUPT"

	// Network errors (300-399)
	ErrCodeNetworkTimeout     = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeSendFailed         = "ERR_302_SEND_FAILED"
	ErrCodeNetworkUnavailable = "ERR_303_NETWORK_UNAVAILABLE"
	ErrCodeFetchFailed        = "ERR_304_FETCH_FAILED"
	ErrCodeUploadFailed       = "ERR_305_UPLOAD_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeUnknownProvider   = "ERR_402_UNKNOWN_PROVIDER"
	ErrCodeInvalidRecipient  = "ERR_403_INVALID_RECIPIENT"
	ErrCodeTooManyRecipients = "ERR_404_TOO_MANY_RECIPIENTS"
	ErrCodeInvalidPath       = "ERR_405_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeAlreadyRunning = "ERR_501_ALREADY_RUNNING"
	ErrCodeInternal       = "ERR_502_INTERNAL"
	ErrCodeWatchFailed    = "ERR_503_WATCH_FAILED"
	ErrCodeSignFailed     = "ERR_504_SIGN_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// Fatal errors abort startup or the whole process
	switch code {
	case ErrCodeConfigNotFound, ErrCodeConfigParse, ErrCodeConfigInvalid,
		ErrCodeDiskFull, ErrCodeHistoryCorrupt, ErrCodeAlreadyRunning:
		return SeverityFatal
	}

	// Retryable network errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	// Vanished files are expected during settling windows
	if code == ErrCodeFileVanished {
		return SeverityWarning
	}

	// Default to error severity
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeNetworkUnavailable:
		return true
	default:
		return false
	}
}
