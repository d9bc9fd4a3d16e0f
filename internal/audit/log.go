// Package audit records every state-mutating lifecycle action to an
// append-only trail.
//
// Writes are best effort: a failed append is reported on the operational
// channel (error log plus a counter) and never fails the business
// mutation it describes.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// Entry describes an action to record. The action kind is taken from the
// payload type.
type Entry struct {
	ActorID     *string
	Entity      domain.EntityRef
	Description string
	Payload     domain.AuditPayload
}

// Log is the audit recorder.
type Log struct {
	clock   clock.Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewLog constructs the recorder. logger and metrics may be nil.
func NewLog(clk clock.Clock, logger *zap.Logger, metrics *observability.Metrics) *Log {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{clock: clk, logger: logger, metrics: metrics}
}

// Record appends entry through w, which is normally the repository of the
// transaction carrying the business change. It always returns the record
// it attempted to write.
func (l *Log) Record(ctx context.Context, w repository.AuditRepository, entry Entry) domain.AuditRecord {
	record := domain.AuditRecord{
		ID:          uuid.NewString(),
		ActorID:     entry.ActorID,
		Entity:      entry.Entity,
		Description: entry.Description,
		Payload:     entry.Payload,
		CreatedAt:   l.clock.Now(),
	}
	if entry.Payload != nil {
		record.Action = entry.Payload.Action()
	}

	if err := w.Append(ctx, &record); err != nil {
		l.logger.Error("audit write failed",
			zap.Error(err),
			zap.String("action", string(record.Action)),
			zap.String("entity_kind", string(record.Entity.Kind)),
			zap.String("entity_id", record.Entity.ID),
			zap.String("description", record.Description))
		l.metrics.RecordAuditFailure(string(record.Action))
	}
	return record
}

// List returns records matching filter, newest first.
func (l *Log) List(ctx context.Context, r repository.AuditRepository, filter repository.AuditFilter) ([]domain.AuditRecord, error) {
	return r.List(ctx, filter)
}
