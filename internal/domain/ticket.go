package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusQA         TicketStatus = "qa"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusReopened   TicketStatus = "reopened"
)

// Valid reports whether s is one of the five lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusQA, TicketStatusClosed, TicketStatusReopened:
		return true
	}
	return false
}

// AllowsUnassigned reports whether a ticket in this status may have no assignee.
func (s TicketStatus) AllowsUnassigned() bool {
	return s == TicketStatusNew || s == TicketStatusReopened
}

// TicketCategory classifies the kind of work.
type TicketCategory string

const (
	TicketCategoryBug     TicketCategory = "bug"
	TicketCategoryTask    TicketCategory = "task"
	TicketCategoryFeature TicketCategory = "feature"
)

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryBug, TicketCategoryTask, TicketCategoryFeature:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate moved through the lifecycle.
//
// Version is bumped on every persisted write and guards concurrent
// updates of the same ticket.
type Ticket struct {
	ID           string
	Code         string
	Title        string
	Description  string
	Category     TicketCategory
	Priority     TicketPriority
	Status       TicketStatus
	ProjectID    string
	AssigneeID   *string
	CreatedBy    string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	InProgressAt *time.Time
	QAAt         *time.Time
	ClosedAt     *time.Time
}

// Ref returns the audit entity reference for the ticket.
func (t *Ticket) Ref() EntityRef {
	return EntityRef{Kind: EntityTicket, ID: t.ID}
}

// HasAssignee reports whether an assignee is set.
func (t *Ticket) HasAssignee() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// IsAssignee reports whether userID is the current assignee.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.HasAssignee() && *t.AssigneeID == userID
}
