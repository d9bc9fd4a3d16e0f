package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// AuditRecordResponse represents an audit record.
type AuditRecordResponse struct {
	ID          string              `json:"id"`
	Action      domain.AuditAction  `json:"action"`
	ActorID     *string             `json:"user_id"`
	EntityKind  domain.EntityKind   `json:"entity_kind"`
	EntityID    string              `json:"entity_id"`
	Description string              `json:"description"`
	Payload     domain.AuditPayload `json:"extra_data"`
	CreatedAt   time.Time           `json:"timestamp"`
}

// NewAuditRecordResponse maps a record.
func NewAuditRecordResponse(r *domain.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:          r.ID,
		Action:      r.Action,
		ActorID:     r.ActorID,
		EntityKind:  r.Entity.Kind,
		EntityID:    r.Entity.ID,
		Description: r.Description,
		Payload:     r.Payload,
		CreatedAt:   r.CreatedAt,
	}
}
