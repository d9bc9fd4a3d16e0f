package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// Storage-level errors. Callers translate them into domain errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrVersionConflict   = errors.New("version conflict")
	ErrOpenSessionExists = errors.New("open work session exists for user")
	ErrSessionNotOpen    = errors.New("work session is not open")
	ErrDuplicateCode     = errors.New("ticket code already in use")
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts a ticket. A code already held by another ticket
	// yields ErrDuplicateCode.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket only if its stored version still equals
	// ticket.Version, then increments ticket.Version. A stale version
	// yields ErrVersionConflict.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
}

// WorkSessionFilter narrows session listings.
type WorkSessionFilter struct {
	TicketID *string
	UserID   *string
	OpenOnly bool
	Limit    int
	Offset   int
}

// WorkSessionRepository encapsulates work session persistence.
type WorkSessionRepository interface {
	// Create inserts an open session. The store rejects a second open
	// session for the same user with ErrOpenSessionExists.
	Create(ctx context.Context, session *domain.WorkSession) error
	// Close persists EndedAt and DurationMinutes for a session that is
	// still open, otherwise returns ErrSessionNotOpen.
	Close(ctx context.Context, session *domain.WorkSession) error
	GetByID(ctx context.Context, id string) (*domain.WorkSession, error)
	FindOpenByUser(ctx context.Context, userID string) (*domain.WorkSession, error)
	ListOpenByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error)
	List(ctx context.Context, filter WorkSessionFilter) ([]domain.WorkSession, error)
}

// AuditFilter narrows audit listings. Results are newest first.
type AuditFilter struct {
	Entity  *domain.EntityRef
	ActorID *string
	Actions []domain.AuditAction
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// AuditRepository appends and reads audit records. There is no update
// or delete.
type AuditRepository interface {
	Append(ctx context.Context, record *domain.AuditRecord) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditRecord, error)
}

// UserRepository resolves users owned by the identity collaborator.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// MembershipRepository answers project membership questions.
type MembershipRepository interface {
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

// Tx exposes repositories bound to one unit of work.
type Tx interface {
	Tickets() TicketRepository
	Sessions() WorkSessionRepository
	Audit() AuditRepository
}

// Store is the persistence entry point. Its own repositories run outside
// any transaction; WithinTx commits everything fn writes atomically or
// nothing at all.
type Store interface {
	Tx
	Users() UserRepository
	Memberships() MembershipRepository
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

const defaultListLimit = 50

// NormalizePage applies the default page size and clamps offset.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
