package domain

import "errors"

// Sentinel errors for lifecycle operations. All except ErrUnavailable
// describe a rejected request rather than a system fault.
var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrMissingAssignee      = errors.New("ticket has no assignee")
	ErrSessionAlreadyActive = errors.New("user already has an active work session")
	ErrAlreadyClosed        = errors.New("work session already closed")
	ErrNotSessionOwner      = errors.New("work session belongs to another user")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrInvalidAssignee      = errors.New("user cannot be assigned to this ticket")
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("ticket was modified concurrently")
	ErrTicketClosed         = errors.New("ticket is closed")
	ErrValidation           = errors.New("validation failed")
	ErrUnavailable          = errors.New("storage unavailable")
)
