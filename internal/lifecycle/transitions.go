// Package lifecycle validates and applies ticket status transitions.
//
// Policy lives in two data structures: the transition table (which
// statuses may follow which) and the guard list (conditions a ticket must
// meet to enter a status). The Machine only executes them.
package lifecycle

import (
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// Table maps each status to the statuses it may move to next.
type Table map[domain.TicketStatus][]domain.TicketStatus

// Transitions is the canonical workflow. There is no terminal state:
// closed tickets may be reopened.
var Transitions = Table{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusQA},
	domain.TicketStatusQA:         {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {domain.TicketStatusReopened},
	domain.TicketStatusReopened:   {domain.TicketStatusInProgress},
}

// Allows reports whether from may move to to.
func (t Table) Allows(from, to domain.TicketStatus) bool {
	for _, candidate := range t[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from from.
func (t Table) Next(from domain.TicketStatus) []domain.TicketStatus {
	return append([]domain.TicketStatus(nil), t[from]...)
}

// Guard is a named precondition checked after the table accepts a
// transition. Check returns nil when the ticket may enter to.
type Guard struct {
	Name  string
	Check func(ticket *domain.Ticket, to domain.TicketStatus) error
}

// Guards are evaluated in order; the first failure rejects the transition.
var Guards = []Guard{
	{Name: "requiresAssignee", Check: requiresAssignee},
}

// requiresAssignee: work cannot begin on an unassigned ticket.
func requiresAssignee(ticket *domain.Ticket, to domain.TicketStatus) error {
	if to == domain.TicketStatusInProgress && !ticket.HasAssignee() {
		return domain.ErrMissingAssignee
	}
	return nil
}

// Validate checks ticket may move to the requested status under table and
// guards.
func Validate(table Table, guards []Guard, ticket *domain.Ticket, to domain.TicketStatus) error {
	if !to.Valid() || !table.Allows(ticket.Status, to) {
		return domain.ErrInvalidTransition
	}
	for _, guard := range guards {
		if err := guard.Check(ticket, to); err != nil {
			return err
		}
	}
	return nil
}

// opensSession reports whether entering to from from starts a work session.
func opensSession(from, to domain.TicketStatus) bool {
	return to == domain.TicketStatusInProgress &&
		(from == domain.TicketStatusNew || from == domain.TicketStatusReopened)
}
