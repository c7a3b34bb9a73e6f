package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes used across the engine.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeConfiguration        = "CONFIGURATION_ERROR"
	CodeViolationNotFound    = "VIOLATION_NOT_FOUND"
	CodeAlreadyEscalated     = "ALREADY_ESCALATED"
	CodeTargetNotFound       = "TARGET_NOT_FOUND"
	CodeNotificationDispatch = "NOTIFICATION_DISPATCH"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewConfigurationError flags a malformed SLA or business-hours policy.
func NewConfigurationError(message string, details map[string]any) error {
	return NewDomainError(CodeConfiguration, message, http.StatusUnprocessableEntity, details)
}

// NewViolationNotFound signals an escalation request for an unknown violation.
func NewViolationNotFound(violationID string) error {
	return NewDomainError(CodeViolationNotFound, "sla violation not found", http.StatusNotFound, map[string]any{
		"violation_id": violationID,
	})
}

// NewAlreadyEscalated signals a manual re-escalation attempt.
func NewAlreadyEscalated(violationID string) error {
	return NewDomainError(CodeAlreadyEscalated, "violation already escalated", http.StatusConflict, map[string]any{
		"violation_id": violationID,
	})
}

// NewTargetNotFound signals that the escalation fallback chain was exhausted.
func NewTargetNotFound(workItemID string) error {
	return NewDomainError(CodeTargetNotFound, "no escalation target available", http.StatusNotFound, map[string]any{
		"work_item_id": workItemID,
	})
}

// NewNotificationDispatchError wraps a failed notification handoff. Callers
// log it and move on; it never propagates past the notification boundary.
func NewNotificationDispatchError(err error) error {
	return &DomainError{
		Code:       CodeNotificationDispatch,
		Message:    "notification dispatch failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
