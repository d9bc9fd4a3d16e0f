package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// StartWorkRequest payload.
type StartWorkRequest struct {
	Notes string `json:"notes"`
}

// WorkSessionResponse represents a work session.
type WorkSessionResponse struct {
	ID              string     `json:"id"`
	TicketID        string     `json:"ticket_id"`
	UserID          string     `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
	IsActive        bool       `json:"is_active"`
}

// ActiveSessionResponse adds the minutes elapsed so far.
type ActiveSessionResponse struct {
	WorkSessionResponse
	ElapsedMinutes int `json:"elapsed_minutes"`
}

// NewWorkSessionResponse maps a session.
func NewWorkSessionResponse(s *domain.WorkSession) WorkSessionResponse {
	return WorkSessionResponse{
		ID:              s.ID,
		TicketID:        s.TicketID,
		UserID:          s.UserID,
		StartTime:       s.StartedAt,
		EndTime:         s.EndedAt,
		DurationMinutes: s.DurationMinutes,
		Notes:           s.Notes,
		IsActive:        s.IsOpen(),
	}
}
