package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memory"
)

var t0 = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func TestRecordStampsActionAndTime(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	log := NewLog(clock.Fake(t0), nil, nil)
	actor := "u1"

	rec := log.Record(ctx, store.Audit(), Entry{
		ActorID:     &actor,
		Entity:      domain.EntityRef{Kind: domain.EntityTicket, ID: "t1"},
		Description: "Changed status",
		Payload:     domain.StatusChangePayload{OldStatus: domain.TicketStatusNew, NewStatus: domain.TicketStatusInProgress},
	})
	if rec.Action != domain.ActionStatusChange {
		t.Errorf("action = %q", rec.Action)
	}
	if !rec.CreatedAt.Equal(t0) || rec.ID == "" {
		t.Errorf("record = %+v", rec)
	}

	got, err := log.List(ctx, store.Audit(), repository.AuditFilter{})
	if err != nil || len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("list = %+v, %v", got, err)
	}
}

func TestRecordFailureIsReportedNotReturned(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.FailAuditWrites(errors.New("disk full"))
	core, logs := observer.New(zap.ErrorLevel)
	metrics := observability.NewMetrics()
	log := NewLog(clock.Fake(t0), zap.New(core), metrics)

	err := store.WithinTx(ctx, func(tx repository.Tx) error {
		ticket := &domain.Ticket{ID: "t1", Code: "TKT-1", Status: domain.TicketStatusNew, Version: 1}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		log.Record(ctx, tx.Audit(), Entry{Entity: ticket.Ref(), Payload: domain.CreatePayload{TicketCode: ticket.Code}})
		return nil
	})
	if err != nil {
		t.Fatalf("business transaction failed: %v", err)
	}
	if _, err := store.Tickets().GetByID(ctx, "t1"); err != nil {
		t.Fatalf("ticket not committed: %v", err)
	}

	if metrics.AuditFailures() != 1 {
		t.Errorf("audit failures = %d, want 1", metrics.AuditFailures())
	}
	entries := logs.FilterMessage("audit write failed").All()
	if len(entries) != 1 {
		t.Fatalf("error log entries = %d, want 1", len(entries))
	}
	if entries[0].ContextMap()["action"] != string(domain.ActionCreate) {
		t.Errorf("logged fields = %v", entries[0].ContextMap())
	}
}
