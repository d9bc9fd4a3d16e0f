package events

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketUpdated       EventType = "ticket_updated"
	EventWorkStarted         EventType = "work_started"
	EventWorkStopped         EventType = "work_stopped"
)

// AllEventTypes lists every type the coordinator publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketUpdated,
	EventWorkStarted,
	EventWorkStopped,
}

// Actor identifies who caused an event. UserID is nil for system actions.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
}

// Event represents a committed lifecycle change.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code       string                `json:"code"`
	ProjectID  string                `json:"project_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Category   domain.TicketCategory `json:"category"`
	Title      string                `json:"title"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID *string `json:"new_assignee_id,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// WorkSessionPayload is shared by work started and stopped events.
type WorkSessionPayload struct {
	SessionID       string     `json:"work_session_id"`
	UserID          string     `json:"user_id"`
	StartedAt       time.Time  `json:"start_time"`
	EndedAt         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Automatic       bool       `json:"automatic,omitempty"`
}
