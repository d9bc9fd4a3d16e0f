package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// Stable error codes rendered at the API boundary.
const (
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeMissingAssignee      = "MISSING_ASSIGNEE"
	CodeSessionAlreadyActive = "SESSION_ALREADY_ACTIVE"
	CodeAlreadyClosed        = "ALREADY_CLOSED"
	CodeNotSessionOwner      = "NOT_SESSION_OWNER"
	CodeNotAuthorized        = "NOT_AUTHORIZED"
	CodeInvalidAssignee      = "INVALID_ASSIGNEE"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeValidation           = "VALIDATION_FAILED"
	CodeUnavailable          = "UNAVAILABLE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeInternal             = "INTERNAL_ERROR"
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
	return &DomainError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
		Err:        domain.ErrValidation,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return &DomainError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
		Err:        domain.ErrConflict,
	}
}

func NewUnavailable(err error) error {
	return &DomainError{
		Code:       CodeUnavailable,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        errors.Join(domain.ErrUnavailable, err),
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

type mapping struct {
	sentinel error
	code     string
	message  string
	status   int
}

var domainMappings = []mapping{
	{domain.ErrInvalidTransition, CodeInvalidTransition, "status transition not allowed", http.StatusConflict},
	{domain.ErrMissingAssignee, CodeMissingAssignee, "ticket must have an assignee", http.StatusUnprocessableEntity},
	{domain.ErrSessionAlreadyActive, CodeSessionAlreadyActive, "user already has an active work session", http.StatusConflict},
	{domain.ErrAlreadyClosed, CodeAlreadyClosed, "work session already closed", http.StatusConflict},
	{domain.ErrNotSessionOwner, CodeNotSessionOwner, "work session belongs to another user", http.StatusForbidden},
	{domain.ErrNotAuthorized, CodeNotAuthorized, "not authorized for this ticket", http.StatusForbidden},
	{domain.ErrInvalidAssignee, CodeInvalidAssignee, "user cannot be assigned to this ticket", http.StatusUnprocessableEntity},
	{domain.ErrNotFound, CodeNotFound, "resource not found", http.StatusNotFound},
	{domain.ErrConflict, CodeConflict, "ticket was modified concurrently", http.StatusConflict},
	{domain.ErrTicketClosed, CodeConflict, "ticket is closed", http.StatusConflict},
	{domain.ErrValidation, CodeValidation, "validation failed", http.StatusBadRequest},
	{domain.ErrUnavailable, CodeUnavailable, "storage unavailable", http.StatusServiceUnavailable},
}

// FromDomain translates a domain sentinel into its boundary error. It
// returns nil when err carries none of them.
func FromDomain(err error, details map[string]any) *DomainError {
	for _, m := range domainMappings {
		if errors.Is(err, m.sentinel) {
			return &DomainError{
				Code:       m.code,
				Message:    m.message,
				HTTPStatus: m.status,
				Details:    details,
				Err:        err,
			}
		}
	}
	return nil
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
	if de := FromDomain(err, nil); de != nil {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf returns the boundary code carried by err, or "" when err is not
// a DomainError.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
