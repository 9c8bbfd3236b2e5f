package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodeNotAParticipant  = "NOT_A_PARTICIPANT"
	CodeValidation       = "VALIDATION_ERROR"
	CodeEmptyMessage     = "EMPTY_MESSAGE"
	CodeMessageTooLong   = "MESSAGE_TOO_LONG"
	CodeSubscription     = "SUBSCRIPTION_ERROR"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeConflict         = "CONFLICT"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string
	Message    string
	Status     int
	Err        error
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

// NotAParticipant means the caller is not in the conversation's participant
// set, which usually points at a stale or tampered client.
func NotAParticipant(conversationID, userID string) *AppError {
	return &AppError{
		Code:    CodeNotAParticipant,
		Message: fmt.Sprintf("user %s is not a participant of conversation %s", userID, conversationID),
		Status:  http.StatusForbidden,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func EmptyMessage() *AppError {
	return &AppError{
		Code:    CodeEmptyMessage,
		Message: "Message text is empty",
		Status:  http.StatusBadRequest,
	}
}

func MessageTooLong(max int) *AppError {
	return &AppError{
		Code:    CodeMessageTooLong,
		Message: fmt.Sprintf("Message is too long, keep it under %d characters", max),
		Status:  http.StatusBadRequest,
	}
}

func Subscription(key string, err error) *AppError {
	return &AppError{
		Code:    CodeSubscription,
		Message: fmt.Sprintf("subscription %s failed", key),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// Throttled is the local rate-limit rejection. It never reaches the store.
func Throttled(message string, retryAfter time.Duration) *AppError {
	return &AppError{
		Code:       CodeTooManyRequests,
		Message:    message,
		Status:     http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsValidation reports whether err was rejected before any write because of
// malformed input.
func IsValidation(err error) bool {
	return Is(err, CodeValidation) || Is(err, CodeEmptyMessage) || Is(err, CodeMessageTooLong)
}

// CodeOf returns the classification of err, or CodeInternal for errors that
// did not originate here.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// From returns the AppError in err's chain, if any.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
