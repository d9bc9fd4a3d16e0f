package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/audit"
	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/worksession"
)

// Policy answers the authorization questions Assign depends on. Role and
// membership rules live with the implementation.
type Policy interface {
	CanAssign(ctx context.Context, actor *domain.User, ticket *domain.Ticket) (bool, error)
	Eligible(ctx context.Context, target *domain.User, ticket *domain.Ticket) (bool, error)
}

// Machine applies status transitions and assignee changes inside a
// caller-owned transaction.
type Machine struct {
	table    Table
	guards   []Guard
	sessions *worksession.Manager
	audit    *audit.Log
	clock    clock.Clock
}

// NewMachine builds a Machine with the canonical table and guards.
func NewMachine(sessions *worksession.Manager, auditLog *audit.Log, clk clock.Clock) *Machine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Machine{
		table:    Transitions,
		guards:   Guards,
		sessions: sessions,
		audit:    auditLog,
		clock:    clk,
	}
}

// Allowed lists the statuses a ticket in from may move to.
func (m *Machine) Allowed(from domain.TicketStatus) []domain.TicketStatus {
	return m.table.Next(from)
}

// Transition is the outcome of an accepted status change.
type Transition struct {
	Ticket         *domain.Ticket
	OldStatus      domain.TicketStatus
	OpenedSession  *domain.WorkSession
	ClosedSessions []domain.WorkSession
}

// RequestTransition moves ticket to status to on behalf of actorID.
//
// Session side effects run on tx before the ticket write so a reader of
// the committed state never sees a closed ticket with an open session.
// The passed ticket is not modified; the updated copy is returned.
func (m *Machine) RequestTransition(ctx context.Context, tx repository.Tx, ticket *domain.Ticket, to domain.TicketStatus, actorID string) (*Transition, error) {
	if err := Validate(m.table, m.guards, ticket, to); err != nil {
		return nil, err
	}

	from := ticket.Status
	result := &Transition{OldStatus: from}

	if to == domain.TicketStatusClosed {
		closed, err := m.sessions.CloseForTicket(ctx, tx, ticket)
		if err != nil {
			return nil, err
		}
		result.ClosedSessions = closed
	}

	if opensSession(from, to) {
		existing, err := m.sessions.FindOpenForTicket(ctx, tx.Sessions(), ticket.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			opened, err := m.sessions.Open(ctx, tx, actorID, ticket, "")
			if err != nil {
				return nil, err
			}
			result.OpenedSession = opened
		}
	}

	next := *ticket
	now := m.clock.Now()
	next.Status = to
	next.UpdatedAt = now
	stampFirstEntry(&next, to, now)
	if to == domain.TicketStatusReopened {
		next.AssigneeID = nil
	}
	if err := tx.Tickets().Update(ctx, &next); err != nil {
		return nil, err
	}

	actor := actorID
	m.audit.Record(ctx, tx.Audit(), audit.Entry{
		ActorID:     &actor,
		Entity:      next.Ref(),
		Description: fmt.Sprintf("Changed status of ticket %s from '%s' to '%s'", next.Code, from, to),
		Payload:     domain.StatusChangePayload{OldStatus: from, NewStatus: to},
	})

	result.Ticket = &next
	return result, nil
}

// AssignRequest carries the parties of an assignee change. Previous is
// the current assignee, nil when the ticket is unassigned.
type AssignRequest struct {
	Ticket   *domain.Ticket
	Target   *domain.User
	Previous *domain.User
	Actor    *domain.User
}

// Assign sets the ticket's assignee to req.Target. Reassigning the current
// assignee is a no-op and writes nothing.
func (m *Machine) Assign(ctx context.Context, tx repository.Tx, policy Policy, req AssignRequest) (*domain.Ticket, error) {
	allowed, err := policy.CanAssign(ctx, req.Actor, req.Ticket)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrNotAuthorized
	}
	if req.Target == nil || !req.Target.Active {
		return nil, domain.ErrInvalidAssignee
	}
	eligible, err := policy.Eligible(ctx, req.Target, req.Ticket)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, domain.ErrInvalidAssignee
	}

	if req.Ticket.IsAssignee(req.Target.ID) {
		return req.Ticket, nil
	}

	next := *req.Ticket
	oldAssignee := next.AssigneeID
	newAssignee := req.Target.ID
	next.AssigneeID = &newAssignee
	next.UpdatedAt = m.clock.Now()
	if err := tx.Tickets().Update(ctx, &next); err != nil {
		return nil, err
	}

	actor := req.Actor.ID
	m.audit.Record(ctx, tx.Audit(), audit.Entry{
		ActorID: &actor,
		Entity:  next.Ref(),
		Description: fmt.Sprintf("Assigned ticket %s from '%s' to '%s'",
			next.Code, req.Previous.DisplayName(), req.Target.DisplayName()),
		Payload: domain.AssignmentChangePayload{OldAssigneeID: oldAssignee, NewAssigneeID: &newAssignee},
	})
	return &next, nil
}

func stampFirstEntry(ticket *domain.Ticket, to domain.TicketStatus, now time.Time) {
	switch to {
	case domain.TicketStatusInProgress:
		if ticket.InProgressAt == nil {
			ticket.InProgressAt = &now
		}
	case domain.TicketStatusQA:
		if ticket.QAAt == nil {
			ticket.QAAt = &now
		}
	case domain.TicketStatusClosed:
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
	}
}
