package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string                `json:"project_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	AssigneeID  *string               `json:"assignee_id"`
}

// UpdateTicketRequest payload. Omitted fields are unchanged; an empty
// assignee_id clears the assignee.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Priority    *domain.TicketPriority `json:"priority"`
	AssigneeID  *string                `json:"assignee_id"`
	Status      *domain.TicketStatus   `json:"status"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	ProjectID    string                `json:"project_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	AssigneeID   *string               `json:"assignee_id"`
	CreatedBy    string                `json:"created_by"`
	Version      int64                 `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	InProgressAt *time.Time            `json:"in_progress_at"`
	QAAt         *time.Time            `json:"qa_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Code:         t.Code,
		ProjectID:    t.ProjectID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		AssigneeID:   t.AssigneeID,
		CreatedBy:    t.CreatedBy,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		InProgressAt: t.InProgressAt,
		QAAt:         t.QAAt,
		ClosedAt:     t.ClosedAt,
	}
}
