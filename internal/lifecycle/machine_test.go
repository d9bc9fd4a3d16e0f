package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/audit"
	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memory"
	"github.com/spec-kit/ticket-lifecycle/internal/worksession"
)

var t0 = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

type machineFixture struct {
	store   *memory.Store
	clock   *clock.FakeClock
	machine *Machine
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()
	f := &machineFixture{store: memory.New(), clock: clock.Fake(t0)}
	log := audit.NewLog(f.clock, nil, nil)
	f.machine = NewMachine(worksession.NewManager(log, f.clock), log, f.clock)
	return f
}

func (f *machineFixture) seed(t *testing.T, status domain.TicketStatus, assignee *string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ID:         "t1",
		Code:       "TKT-20250602-0001",
		Title:      "Login broken",
		Category:   domain.TicketCategoryBug,
		Priority:   domain.TicketPriorityHigh,
		Status:     status,
		ProjectID:  "p1",
		AssigneeID: assignee,
		CreatedBy:  "creator",
		Version:    1,
		CreatedAt:  t0,
		UpdatedAt:  t0,
	}
	if err := f.store.Tickets().Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return f.get(t)
}

func (f *machineFixture) get(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	return ticket
}

func (f *machineFixture) transition(t *testing.T, to domain.TicketStatus, actor string) (*Transition, error) {
	t.Helper()
	ticket := f.get(t)
	var result *Transition
	err := f.store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		result, err = f.machine.RequestTransition(context.Background(), tx, ticket, to, actor)
		return err
	})
	return result, err
}

func (f *machineFixture) records(t *testing.T, action domain.AuditAction) []domain.AuditRecord {
	t.Helper()
	records, err := f.store.Audit().List(context.Background(), repository.AuditFilter{
		Actions: []domain.AuditAction{action},
	})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return records
}

func strPtr(s string) *string { return &s }

func TestTransitionWritesOneStatusRecord(t *testing.T) {
	f := newMachineFixture(t)
	f.seed(t, domain.TicketStatusNew, strPtr("dev"))

	result, err := f.transition(t, domain.TicketStatusInProgress, "dev")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.OldStatus != domain.TicketStatusNew || result.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("unexpected result %+v", result)
	}

	records := f.records(t, domain.ActionStatusChange)
	if len(records) != 1 {
		t.Fatalf("expected 1 status_change record, got %d", len(records))
	}
	payload, ok := records[0].Payload.(domain.StatusChangePayload)
	if !ok {
		t.Fatalf("unexpected payload %T", records[0].Payload)
	}
	if payload.OldStatus != domain.TicketStatusNew || payload.NewStatus != domain.TicketStatusInProgress {
		t.Errorf("unexpected payload %+v", payload)
	}
	if records[0].ActorID == nil || *records[0].ActorID != "dev" {
		t.Errorf("expected actor dev, got %v", records[0].ActorID)
	}
	want := "Changed status of ticket TKT-20250602-0001 from 'new' to 'in_progress'"
	if records[0].Description != want {
		t.Errorf("description = %q", records[0].Description)
	}
}

func TestRejectedTransitionWritesNothing(t *testing.T) {
	f := newMachineFixture(t)
	f.seed(t, domain.TicketStatusNew, nil)

	if _, err := f.transition(t, domain.TicketStatusInProgress, "dev"); !errors.Is(err, domain.ErrMissingAssignee) {
		t.Fatalf("expected ErrMissingAssignee, got %v", err)
	}
	if _, err := f.transition(t, domain.TicketStatusClosed, "dev"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := f.get(t); got.Status != domain.TicketStatusNew || got.Version != 1 {
		t.Errorf("ticket changed: %+v", got)
	}
	if n := len(f.records(t, domain.ActionStatusChange)); n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}

func TestFullCycleSessionsAndTimestamps(t *testing.T) {
	f := newMachineFixture(t)
	f.seed(t, domain.TicketStatusNew, strPtr("dev"))

	started, err := f.transition(t, domain.TicketStatusInProgress, "dev")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.OpenedSession == nil || started.OpenedSession.UserID != "dev" {
		t.Fatalf("expected session opened for dev, got %+v", started.OpenedSession)
	}
	firstInProgress := *started.Ticket.InProgressAt

	f.clock.Advance(30 * time.Minute)
	if _, err := f.transition(t, domain.TicketStatusQA, "dev"); err != nil {
		t.Fatalf("qa: %v", err)
	}
	f.clock.Advance(15 * time.Minute)
	closed, err := f.transition(t, domain.TicketStatusClosed, "lead")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(closed.ClosedSessions) != 1 {
		t.Fatalf("expected 1 closed session, got %d", len(closed.ClosedSessions))
	}
	if d := closed.ClosedSessions[0].DurationMinutes; d != 45 {
		t.Errorf("expected 45 minutes, got %d", d)
	}
	open, err := f.store.Sessions().FindOpenByUser(context.Background(), "dev")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if open != nil {
		t.Fatalf("expected no open session after close, got %+v", open)
	}

	reopened, err := f.transition(t, domain.TicketStatusReopened, "lead")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Ticket.AssigneeID != nil {
		t.Errorf("reopen must clear assignee, got %v", *reopened.Ticket.AssigneeID)
	}
	if reopened.Ticket.ClosedAt == nil {
		t.Error("closed_at must survive reopen")
	}

	final := f.get(t)
	if !final.InProgressAt.Equal(firstInProgress) {
		t.Errorf("in_progress_at moved from %v to %v", firstInProgress, final.InProgressAt)
	}
	if final.Version != 5 {
		t.Errorf("expected version 5 after four writes, got %d", final.Version)
	}
	if n := len(f.records(t, domain.ActionStatusChange)); n != 4 {
		t.Errorf("expected 4 status_change records, got %d", n)
	}
}

func TestReentryKeepsFirstTimestamp(t *testing.T) {
	f := newMachineFixture(t)
	first := t0.Add(-48 * time.Hour)
	ticket := f.seed(t, domain.TicketStatusReopened, strPtr("dev"))
	ticket.InProgressAt = &first
	if err := f.store.Tickets().Update(context.Background(), ticket); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	result, err := f.transition(t, domain.TicketStatusInProgress, "dev")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !result.Ticket.InProgressAt.Equal(first) {
		t.Errorf("in_progress_at overwritten: %v", result.Ticket.InProgressAt)
	}
}

func TestExistingTicketSessionSuppressesOpen(t *testing.T) {
	f := newMachineFixture(t)
	ticket := f.seed(t, domain.TicketStatusReopened, strPtr("dev"))
	err := f.store.Sessions().Create(context.Background(), &domain.WorkSession{
		ID: "s-existing", TicketID: ticket.ID, UserID: "other", StartedAt: t0, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	result, err := f.transition(t, domain.TicketStatusInProgress, "dev")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.OpenedSession != nil {
		t.Errorf("expected no new session, got %+v", result.OpenedSession)
	}
}

func TestActorWithSessionElsewhereFailsWhole(t *testing.T) {
	f := newMachineFixture(t)
	f.seed(t, domain.TicketStatusNew, strPtr("dev"))
	err := f.store.Sessions().Create(context.Background(), &domain.WorkSession{
		ID: "s-elsewhere", TicketID: "t-other", UserID: "dev", StartedAt: t0, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if _, err := f.transition(t, domain.TicketStatusInProgress, "dev"); !errors.Is(err, domain.ErrSessionAlreadyActive) {
		t.Fatalf("expected ErrSessionAlreadyActive, got %v", err)
	}
	if got := f.get(t); got.Status != domain.TicketStatusNew {
		t.Errorf("status changed to %s", got.Status)
	}
}

func TestStaleTicketConflicts(t *testing.T) {
	f := newMachineFixture(t)
	stale := f.seed(t, domain.TicketStatusInProgress, strPtr("dev"))
	if _, err := f.transition(t, domain.TicketStatusQA, "dev"); err != nil {
		t.Fatalf("qa: %v", err)
	}

	err := f.store.WithinTx(context.Background(), func(tx repository.Tx) error {
		stale.Status = domain.TicketStatusInProgress
		_, err := f.machine.RequestTransition(context.Background(), tx, stale, domain.TicketStatusQA, "dev")
		return err
	})
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

type fakePolicy struct {
	canAssign bool
	eligible  map[string]bool
}

func (p fakePolicy) CanAssign(context.Context, *domain.User, *domain.Ticket) (bool, error) {
	return p.canAssign, nil
}

func (p fakePolicy) Eligible(_ context.Context, target *domain.User, _ *domain.Ticket) (bool, error) {
	return p.eligible[target.ID], nil
}

func (f *machineFixture) assign(t *testing.T, policy Policy, target, previous *domain.User) (*domain.Ticket, error) {
	t.Helper()
	ticket := f.get(t)
	var out *domain.Ticket
	err := f.store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = f.machine.Assign(context.Background(), tx, policy, AssignRequest{
			Ticket:   ticket,
			Target:   target,
			Previous: previous,
			Actor:    &domain.User{ID: "lead", Username: "lead", Active: true},
		})
		return err
	})
	return out, err
}

func TestAssign(t *testing.T) {
	alice := &domain.User{ID: "alice", Username: "alice", Active: true}
	bob := &domain.User{ID: "bob", Username: "bob", Active: true}
	gone := &domain.User{ID: "gone", Username: "gone"}
	policy := fakePolicy{canAssign: true, eligible: map[string]bool{"alice": true, "bob": true, "gone": true}}

	t.Run("records change", func(t *testing.T) {
		f := newMachineFixture(t)
		f.seed(t, domain.TicketStatusNew, nil)
		out, err := f.assign(t, policy, alice, nil)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if !out.IsAssignee("alice") {
			t.Fatalf("expected alice, got %v", out.AssigneeID)
		}
		records := f.records(t, domain.ActionAssignmentChange)
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		want := "Assigned ticket TKT-20250602-0001 from 'Unassigned' to 'alice'"
		if records[0].Description != want {
			t.Errorf("description = %q", records[0].Description)
		}
		payload := records[0].Payload.(domain.AssignmentChangePayload)
		if payload.OldAssigneeID != nil || payload.NewAssigneeID == nil || *payload.NewAssigneeID != "alice" {
			t.Errorf("unexpected payload %+v", payload)
		}
	})

	t.Run("same assignee is a no-op", func(t *testing.T) {
		f := newMachineFixture(t)
		f.seed(t, domain.TicketStatusInProgress, strPtr("alice"))
		if _, err := f.assign(t, policy, alice, alice); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if n := len(f.records(t, domain.ActionAssignmentChange)); n != 0 {
			t.Errorf("expected no records, got %d", n)
		}
		if f.get(t).Version != 1 {
			t.Error("ticket written on no-op assign")
		}
	})

	t.Run("reassign", func(t *testing.T) {
		f := newMachineFixture(t)
		f.seed(t, domain.TicketStatusInProgress, strPtr("alice"))
		if _, err := f.assign(t, policy, bob, alice); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if !f.get(t).IsAssignee("bob") {
			t.Error("expected bob")
		}
	})

	t.Run("rejections", func(t *testing.T) {
		f := newMachineFixture(t)
		f.seed(t, domain.TicketStatusNew, nil)
		if _, err := f.assign(t, fakePolicy{}, alice, nil); !errors.Is(err, domain.ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
		if _, err := f.assign(t, policy, gone, nil); !errors.Is(err, domain.ErrInvalidAssignee) {
			t.Errorf("inactive target: expected ErrInvalidAssignee, got %v", err)
		}
		if _, err := f.assign(t, policy, nil, nil); !errors.Is(err, domain.ErrInvalidAssignee) {
			t.Errorf("nil target: expected ErrInvalidAssignee, got %v", err)
		}
		notMember := fakePolicy{canAssign: true}
		if _, err := f.assign(t, notMember, alice, nil); !errors.Is(err, domain.ErrInvalidAssignee) {
			t.Errorf("ineligible target: expected ErrInvalidAssignee, got %v", err)
		}
		if f.get(t).AssigneeID != nil {
			t.Error("assignee changed after rejection")
		}
	})
}
