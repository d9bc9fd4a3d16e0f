package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditAction enumerates the kinds of audited mutations.
type AuditAction string

const (
	ActionCreate           AuditAction = "create"
	ActionUpdate           AuditAction = "update"
	ActionDelete           AuditAction = "delete"
	ActionStatusChange     AuditAction = "status_change"
	ActionAssignmentChange AuditAction = "assignment_change"
	ActionComment          AuditAction = "comment"
	ActionWorkLog          AuditAction = "work_log"
)

// Valid reports whether a is a known action kind.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStatusChange,
		ActionAssignmentChange, ActionComment, ActionWorkLog:
		return true
	}
	return false
}

// EntityKind names the type of entity an audit record points at.
type EntityKind string

const (
	EntityTicket      EntityKind = "ticket"
	EntityWorkSession EntityKind = "work_session"
	EntityComment     EntityKind = "comment"
)

// EntityRef identifies the entity affected by an audited action. The
// entity may no longer exist when the record is read.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// AuditRecord is an immutable audit trail entry. ActorID is nil for
// system-initiated actions.
type AuditRecord struct {
	ID          string
	Action      AuditAction
	ActorID     *string
	Entity      EntityRef
	Description string
	Payload     AuditPayload
	CreatedAt   time.Time
}

// AuditPayload is the machine-readable detail of an audit record. Each
// action kind has exactly one payload type; the set is closed.
type AuditPayload interface {
	Action() AuditAction
	sealed()
}

// CreatePayload details a ticket creation.
type CreatePayload struct {
	TicketCode string `json:"ticket_code"`
	Title      string `json:"title"`
}

// FieldChange describes one edited field in an update.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// UpdatePayload details a generic field update.
type UpdatePayload struct {
	Changes []FieldChange `json:"changes"`
}

// DeletePayload details a deletion performed outside the lifecycle core.
type DeletePayload struct {
	TicketCode string `json:"ticket_code"`
	Title      string `json:"title"`
}

// StatusChangePayload details a lifecycle transition.
type StatusChangePayload struct {
	OldStatus TicketStatus `json:"old_status"`
	NewStatus TicketStatus `json:"new_status"`
}

// AssignmentChangePayload details an assignee change.
type AssignmentChangePayload struct {
	OldAssigneeID *string `json:"old_assignee_id"`
	NewAssigneeID *string `json:"new_assignee_id"`
}

// CommentPayload details a comment added by an external collaborator.
type CommentPayload struct {
	CommentID string `json:"comment_id"`
}

// WorkLogEvent distinguishes session start and stop records.
type WorkLogEvent string

const (
	WorkLogStarted WorkLogEvent = "started"
	WorkLogStopped WorkLogEvent = "stopped"
)

// WorkLogPayload details a work session start or stop.
type WorkLogPayload struct {
	SessionID       string       `json:"work_session_id"`
	Event           WorkLogEvent `json:"event"`
	StartedAt       time.Time    `json:"start_time"`
	EndedAt         *time.Time   `json:"end_time,omitempty"`
	DurationMinutes *int         `json:"duration_minutes,omitempty"`
	Automatic       bool         `json:"automatic,omitempty"`
}

func (CreatePayload) Action() AuditAction           { return ActionCreate }
func (UpdatePayload) Action() AuditAction           { return ActionUpdate }
func (DeletePayload) Action() AuditAction           { return ActionDelete }
func (StatusChangePayload) Action() AuditAction     { return ActionStatusChange }
func (AssignmentChangePayload) Action() AuditAction { return ActionAssignmentChange }
func (CommentPayload) Action() AuditAction          { return ActionComment }
func (WorkLogPayload) Action() AuditAction          { return ActionWorkLog }

func (CreatePayload) sealed()           {}
func (UpdatePayload) sealed()           {}
func (DeletePayload) sealed()           {}
func (StatusChangePayload) sealed()     {}
func (AssignmentChangePayload) sealed() {}
func (CommentPayload) sealed()          {}
func (WorkLogPayload) sealed()          {}

// EncodeAuditPayload serializes a payload for storage.
func EncodeAuditPayload(p AuditPayload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// DecodeAuditPayload restores the typed payload stored for action.
func DecodeAuditPayload(action AuditAction, raw []byte) (AuditPayload, error) {
	var (
		payload AuditPayload
		err     error
	)
	switch action {
	case ActionCreate:
		payload, err = decodeAs[CreatePayload](raw)
	case ActionUpdate:
		payload, err = decodeAs[UpdatePayload](raw)
	case ActionDelete:
		payload, err = decodeAs[DeletePayload](raw)
	case ActionStatusChange:
		payload, err = decodeAs[StatusChangePayload](raw)
	case ActionAssignmentChange:
		payload, err = decodeAs[AssignmentChangePayload](raw)
	case ActionComment:
		payload, err = decodeAs[CommentPayload](raw)
	case ActionWorkLog:
		payload, err = decodeAs[WorkLogPayload](raw)
	default:
		return nil, fmt.Errorf("unknown audit action %q", action)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", action, err)
	}
	return payload, nil
}

func decodeAs[T AuditPayload](raw []byte) (AuditPayload, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
