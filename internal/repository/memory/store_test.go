package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

var t0 = time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)

func seedTicket(t *testing.T, s *Store, id string) domain.Ticket {
	t.Helper()
	ticket := domain.Ticket{
		ID: id, Code: "TKT-" + id, Title: "t", Status: domain.TicketStatusNew,
		ProjectID: "p1", CreatedBy: "u1", Version: 1, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := s.Tickets().Create(context.Background(), &ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func openSession(id, ticketID, userID string) *domain.WorkSession {
	return &domain.WorkSession{ID: id, TicketID: ticketID, UserID: userID, StartedAt: t0, CreatedAt: t0}
}

func TestOneOpenSessionPerUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedTicket(t, s, "a")
	seedTicket(t, s, "b")

	if err := s.Sessions().Create(ctx, openSession("s1", "a", "u1")); err != nil {
		t.Fatalf("first open: %v", err)
	}
	err := s.Sessions().Create(ctx, openSession("s2", "b", "u1"))
	if !errors.Is(err, repository.ErrOpenSessionExists) {
		t.Fatalf("second open err = %v, want ErrOpenSessionExists", err)
	}
	if err := s.Sessions().Create(ctx, openSession("s3", "b", "u2")); err != nil {
		t.Fatalf("other user open: %v", err)
	}

	end := t0.Add(time.Minute)
	closed := openSession("s1", "a", "u1")
	closed.EndedAt = &end
	closed.DurationMinutes = 1
	if err := s.Sessions().Close(ctx, closed); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Sessions().Close(ctx, closed); !errors.Is(err, repository.ErrSessionNotOpen) {
		t.Fatalf("second close err = %v, want ErrSessionNotOpen", err)
	}
	if err := s.Sessions().Create(ctx, openSession("s4", "b", "u1")); err != nil {
		t.Fatalf("open after close: %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedTicket(t, s, "a")
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Sessions().Create(ctx, openSession("s1", "a", "u1")); err != nil {
			return err
		}
		if err := tx.Audit().Append(ctx, &domain.AuditRecord{ID: "r1", Action: domain.ActionWorkLog, CreatedAt: t0}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	open, err := s.Sessions().FindOpenByUser(ctx, "u1")
	if err != nil || open != nil {
		t.Fatalf("open session survived rollback: %+v, %v", open, err)
	}
	records, _ := s.Audit().List(ctx, repository.AuditFilter{})
	if len(records) != 0 {
		t.Fatalf("audit records survived rollback: %d", len(records))
	}
}

func TestWithinTxCancelledContextDiscardsWork(t *testing.T) {
	s := New()
	seedTicket(t, s, "a")
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Sessions().Create(ctx, openSession("s1", "a", "u1")); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if open, _ := s.Sessions().FindOpenByUser(context.Background(), "u1"); open != nil {
		t.Fatal("session committed after cancellation")
	}
}

func TestTicketCodeIsUnique(t *testing.T) {
	s := New()
	seedTicket(t, s, "a")

	dup := domain.Ticket{ID: "b", Code: "TKT-a", Status: domain.TicketStatusNew, Version: 1}
	if err := s.Tickets().Create(context.Background(), &dup); !errors.Is(err, repository.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if _, err := s.Tickets().GetByID(context.Background(), "b"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("duplicate ticket was stored: %v", err)
	}
}

func TestTicketVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedTicket(t, s, "a")

	first, _ := s.Tickets().GetByID(ctx, "a")
	second, _ := s.Tickets().GetByID(ctx, "a")

	first.Title = "first"
	if err := s.Tickets().Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, want 2", first.Version)
	}
	second.Title = "second"
	if err := s.Tickets().Update(ctx, second); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("stale update err = %v, want ErrVersionConflict", err)
	}

	missing := domain.Ticket{ID: "nope", Version: 1}
	if err := s.Tickets().Update(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing update err = %v", err)
	}
}

func TestAuditListNewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	actor := "u1"
	ref := domain.EntityRef{Kind: domain.EntityTicket, ID: "a"}
	records := []domain.AuditRecord{
		{ID: "r1", Action: domain.ActionCreate, ActorID: &actor, Entity: ref, CreatedAt: t0},
		{ID: "r2", Action: domain.ActionStatusChange, ActorID: &actor, Entity: ref, CreatedAt: t0.Add(time.Minute)},
		{ID: "r3", Action: domain.ActionWorkLog, Entity: ref, CreatedAt: t0.Add(time.Minute)},
		{ID: "r4", Action: domain.ActionCreate, ActorID: &actor, Entity: domain.EntityRef{Kind: domain.EntityTicket, ID: "b"}, CreatedAt: t0.Add(2 * time.Minute)},
	}
	for i := range records {
		if err := s.Audit().Append(ctx, &records[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Audit().List(ctx, repository.AuditFilter{Entity: &ref})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := []string{}
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "r3" || ids[1] != "r2" || ids[2] != "r1" {
		t.Fatalf("ids = %v, want [r3 r2 r1]", ids)
	}

	got, _ = s.Audit().List(ctx, repository.AuditFilter{ActorID: &actor, Actions: []domain.AuditAction{domain.ActionCreate}})
	if len(got) != 2 || got[0].ID != "r4" {
		t.Fatalf("actor+action filter = %+v", got)
	}

	from := t0.Add(30 * time.Second)
	to := t0.Add(90 * time.Second)
	got, _ = s.Audit().List(ctx, repository.AuditFilter{From: &from, To: &to, Limit: 1, Offset: 1})
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("time range page = %+v", got)
	}
}

func TestFailAuditWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	outage := errors.New("audit table locked")
	s.FailAuditWrites(outage)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.Audit().Append(ctx, &domain.AuditRecord{ID: "r1", Action: domain.ActionCreate})
	})
	if !errors.Is(err, outage) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	s.FailAuditWrites(nil)
	if err := s.Audit().Append(ctx, &domain.AuditRecord{ID: "r2", Action: domain.ActionCreate}); err != nil {
		t.Fatalf("append after restore: %v", err)
	}
}

func TestConcurrentOpensForSameUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		seedTicket(t, s, id)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i, ticketID := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(n int, ticketID string) {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx repository.Tx) error {
				return tx.Sessions().Create(ctx, openSession(ticketID+"-s", ticketID, "u1"))
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i, ticketID)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
	open, _ := s.Sessions().List(ctx, repository.WorkSessionFilter{UserID: strPtr("u1"), OpenOnly: true})
	if len(open) != 1 {
		t.Fatalf("open sessions = %d, want 1", len(open))
	}
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutUser(domain.User{ID: "u1", Role: domain.UserRoleEmployee, Active: true})
	s.AddMember("p1", "u1")

	if _, err := s.Users().GetByID(ctx, "u2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
	if ok, _ := s.Memberships().IsMember(ctx, "p1", "u1"); !ok {
		t.Error("u1 should be a member of p1")
	}
	if ok, _ := s.Memberships().IsMember(ctx, "p2", "u1"); ok {
		t.Error("u1 should not be a member of p2")
	}
}

func strPtr(s string) *string { return &s }
