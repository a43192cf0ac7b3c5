// Package errors provides standardized error handling for the diagnosis pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeStepLocked       ErrorCode = "STEP_LOCKED"

	ErrCodeMatchingRequestFailed ErrorCode = "MATCHING_REQUEST_FAILED"
	ErrCodeMatchingRejected      ErrorCode = "MATCHING_REJECTED"
	ErrCodeMatchingTimeout       ErrorCode = "MATCHING_TIMEOUT"

	ErrCodePayloadDecodeFailed ErrorCode = "PAYLOAD_DECODE_FAILED"
	ErrCodeNoSession           ErrorCode = "NO_SESSION"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeDraftLoadFailed  ErrorCode = "DRAFT_LOAD_FAILED"

	ErrCodeNotifySendFailed ErrorCode = "NOTIFY_SEND_FAILED"
	ErrCodeResetUnacked     ErrorCode = "RESET_UNACKED"

	ErrCodeTrackingFailed     ErrorCode = "TRACKING_FAILED"
	ErrCodeTalentLookupFailed ErrorCode = "TALENT_LOOKUP_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable per-field validation error.
func NewValidationFailedError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Validation failed for field '%s'", field),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewStepLockedError creates a non-retryable error for input arriving while
// the wizard is frozen in a terminal state.
func NewStepLockedError(state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStepLocked,
		Message:   "Wizard no longer accepts input",
		Details:   fmt.Sprintf("state: %s", state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingRequestFailedError creates a matching transport error. The
// scoring call is not safe to retry silently, so this stays non-retryable.
func NewMatchingRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingRequestFailed,
		Message:   "Scoring service request failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingRejectedError creates a non-retryable error for a scoring
// response that reported failure.
func NewMatchingRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingRejected,
		Message:   "Scoring service rejected the submission",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMatchingTimeoutError creates a non-retryable scoring timeout error.
func NewMatchingTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingTimeout,
		Message:   "Scoring service timeout",
		Details:   "request exceeded configured timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadDecodeFailedError creates a non-retryable decode error.
func NewPayloadDecodeFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadDecodeFailed,
		Message:   "Transport payload could not be decoded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoSessionError creates the "no session" condition: no payload and no
// stored data. Routes to the empty-state view, not the error panel.
func NewNoSessionError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoSession,
		Message:   "No diagnosis session available",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store connection error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Session store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreReadFailedError creates a retryable store read error.
func NewStoreReadFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Session store read failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteFailedError creates a retryable store write error.
func NewStoreWriteFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Session store write failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftLoadFailedError creates a retryable draft store error.
func NewDraftLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftLoadFailed,
		Message:   "Wizard draft could not be loaded",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotifySendFailedError creates a retryable host notification error.
func NewNotifySendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotifySendFailed,
		Message:   "Host notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResetUnackedError creates a non-retryable error for a reset request
// the host never acknowledged; the caller falls back to direct navigation.
func NewResetUnackedError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeResetUnacked,
		Message:   "Host did not acknowledge reset",
		Details:   fmt.Sprintf("timeout: %s", timeout),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTrackingFailedError creates a non-retryable click-tracking error.
// Tracking failures are logged and swallowed, never surfaced.
func NewTrackingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTrackingFailed,
		Message:   "Click tracking call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTalentLookupFailedError creates a retryable talent detail error.
func NewTalentLookupFailedError(talentID int64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTalentLookupFailed,
		Message:   "Talent detail lookup failed",
		Details:   fmt.Sprintf("talentId: %d, error: %s", talentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeDraftLoadFailed,
		ErrCodeNotifySendFailed,
		ErrCodeTalentLookupFailed:
		return 3 // Retryable technical errors

	default:
		return 0 // Validation, matching and decode errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "STEP"):
		return "VALIDATION"
	case strings.Contains(codeStr, "MATCHING"):
		return "MATCHING"
	case strings.Contains(codeStr, "DECODE") || strings.Contains(codeStr, "SESSION"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DRAFT"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFY") || strings.Contains(codeStr, "RESET"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TRACKING") || strings.Contains(codeStr, "TALENT"):
		return "COLLABORATOR"
	default:
		return "OTHER"
	}
}
