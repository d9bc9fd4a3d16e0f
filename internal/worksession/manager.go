// Package worksession owns time-tracking sessions and guarantees that a
// user has at most one open session across all tickets.
//
// Exclusivity is enforced by the store (a partial unique index on open
// sessions per user); the lookup done before insert only produces the
// friendlier error in the common case.
package worksession

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-lifecycle/internal/audit"
	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// Manager opens and closes work sessions.
type Manager struct {
	audit *audit.Log
	clock clock.Clock
}

// NewManager constructs a Manager.
func NewManager(auditLog *audit.Log, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.Real()
	}
	return &Manager{audit: auditLog, clock: clk}
}

// Open starts a session for userID on ticket. It fails with
// domain.ErrSessionAlreadyActive when the user has an open session on any
// ticket, including one created concurrently.
func (m *Manager) Open(ctx context.Context, tx repository.Tx, userID string, ticket *domain.Ticket, notes string) (*domain.WorkSession, error) {
	existing, err := tx.Sessions().FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSessionAlreadyActive
	}

	now := m.clock.Now()
	session := &domain.WorkSession{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		UserID:    userID,
		StartedAt: now,
		Notes:     notes,
		CreatedAt: now,
	}
	if err := tx.Sessions().Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			return nil, domain.ErrSessionAlreadyActive
		}
		return nil, err
	}

	actor := userID
	m.audit.Record(ctx, tx.Audit(), audit.Entry{
		ActorID:     &actor,
		Entity:      ticket.Ref(),
		Description: fmt.Sprintf("Started work on ticket %s", ticket.Code),
		Payload: domain.WorkLogPayload{
			SessionID: session.ID,
			Event:     domain.WorkLogStarted,
			StartedAt: session.StartedAt,
		},
	})
	return session, nil
}

// Close stops session on behalf of closingUserID. Closing a session that
// is already closed fails with domain.ErrAlreadyClosed whoever asks;
// closing another user's open session fails with domain.ErrNotSessionOwner.
func (m *Manager) Close(ctx context.Context, tx repository.Tx, session *domain.WorkSession, closingUserID string, ticketCode string) (*domain.WorkSession, error) {
	if !session.IsOpen() {
		return nil, domain.ErrAlreadyClosed
	}
	if session.UserID != closingUserID {
		return nil, domain.ErrNotSessionOwner
	}
	actor := closingUserID
	return m.close(ctx, tx, session, &actor, ticketCode, false)
}

// CloseForTicket closes every open session on ticket. It is system
// initiated, so ownership is not checked and the audit actor is nil.
func (m *Manager) CloseForTicket(ctx context.Context, tx repository.Tx, ticket *domain.Ticket) ([]domain.WorkSession, error) {
	open, err := tx.Sessions().ListOpenByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	closed := make([]domain.WorkSession, 0, len(open))
	for i := range open {
		session, err := m.close(ctx, tx, &open[i], nil, ticket.Code, true)
		if err != nil {
			return nil, err
		}
		closed = append(closed, *session)
	}
	return closed, nil
}

func (m *Manager) close(ctx context.Context, tx repository.Tx, session *domain.WorkSession, actorID *string, ticketCode string, automatic bool) (*domain.WorkSession, error) {
	end := m.clock.Now()
	closed := *session
	closed.EndedAt = &end
	closed.DurationMinutes = domain.ElapsedMinutes(closed.StartedAt, end)

	if err := tx.Sessions().Close(ctx, &closed); err != nil {
		if errors.Is(err, repository.ErrSessionNotOpen) {
			return nil, domain.ErrAlreadyClosed
		}
		return nil, err
	}

	duration := closed.DurationMinutes
	m.audit.Record(ctx, tx.Audit(), audit.Entry{
		ActorID:     actorID,
		Entity:      domain.EntityRef{Kind: domain.EntityTicket, ID: closed.TicketID},
		Description: fmt.Sprintf("Stopped work on ticket %s (%d minutes)", ticketCode, duration),
		Payload: domain.WorkLogPayload{
			SessionID:       closed.ID,
			Event:           domain.WorkLogStopped,
			StartedAt:       closed.StartedAt,
			EndedAt:         closed.EndedAt,
			DurationMinutes: &duration,
			Automatic:       automatic,
		},
	})
	return &closed, nil
}

// FindOpen returns the user's open session or nil. It has no side effects.
func (m *Manager) FindOpen(ctx context.Context, r repository.WorkSessionRepository, userID string) (*domain.WorkSession, error) {
	return r.FindOpenByUser(ctx, userID)
}

// FindOpenForTicket returns one open session on the ticket or nil.
func (m *Manager) FindOpenForTicket(ctx context.Context, r repository.WorkSessionRepository, ticketID string) (*domain.WorkSession, error) {
	open, err := r.ListOpenByTicket(ctx, ticketID)
	if err != nil || len(open) == 0 {
		return nil, err
	}
	return &open[0], nil
}
