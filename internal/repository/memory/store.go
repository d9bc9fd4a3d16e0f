// Package memory provides an in-process Store with the same constraint
// semantics as the Postgres schema: one open work session per user,
// optimistic ticket versions, append-only audit records and atomic
// transactions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// Store is a mutex-guarded in-memory repository.Store. Transactions are
// serialized and applied copy-on-commit.
type Store struct {
	mu        sync.Mutex
	data      *state
	auditFail error

	// Users and memberships belong to external collaborators and are not
	// transactional, so they sit behind their own lock.
	dirMu   sync.RWMutex
	users   map[string]domain.User
	members map[string]map[string]struct{}
}

var _ repository.Store = (*Store)(nil)

type state struct {
	tickets  map[string]domain.Ticket
	sessions map[string]domain.WorkSession
	audit    []domain.AuditRecord
}

func newState() *state {
	return &state{
		tickets:  make(map[string]domain.Ticket),
		sessions: make(map[string]domain.WorkSession),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.audit = append(c.audit, s.audit...)
	return c
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data:    newState(),
		users:   make(map[string]domain.User),
		members: make(map[string]map[string]struct{}),
	}
}

// PutUser registers a user in the directory.
func (s *Store) PutUser(user domain.User) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.users[user.ID] = user
}

// AddMember adds userID to projectID.
func (s *Store) AddMember(projectID, userID string) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	set, ok := s.members[projectID]
	if !ok {
		set = make(map[string]struct{})
		s.members[projectID] = set
	}
	set[userID] = struct{}{}
}

// FailAuditWrites makes every subsequent audit append return err. Pass
// nil to restore normal behaviour.
func (s *Store) FailAuditWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditFail = err
}

// Tickets returns an auto-commit ticket repository.
func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepo{view: s.autoCommit()}
}

// Sessions returns an auto-commit work session repository.
func (s *Store) Sessions() repository.WorkSessionRepository {
	return &sessionRepo{view: s.autoCommit()}
}

// Audit returns an auto-commit audit repository.
func (s *Store) Audit() repository.AuditRepository {
	return &auditRepo{view: s.autoCommit()}
}

// Users returns the user directory.
func (s *Store) Users() repository.UserRepository {
	return &userRepo{s: s}
}

// Memberships returns the membership lookup.
func (s *Store) Memberships() repository.MembershipRepository {
	return &memberRepo{s: s}
}

// WithinTx runs fn against a private copy of the data and publishes the
// copy only if fn succeeds and ctx is still live.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	tx := &txView{st: work, auditFail: s.auditFail}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// view runs a callback with exclusive access to the state.
type view interface {
	do(fn func(st *state, auditFail error) error) error
}

type autoCommitView struct {
	s *Store
}

func (s *Store) autoCommit() view { return autoCommitView{s: s} }

func (v autoCommitView) do(fn func(st *state, auditFail error) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data, v.s.auditFail)
}

// txView is used while the store mutex is already held by WithinTx.
type txView struct {
	st        *state
	auditFail error
}

func (t *txView) do(fn func(st *state, auditFail error) error) error {
	return fn(t.st, t.auditFail)
}

func (t *txView) Tickets() repository.TicketRepository       { return &ticketRepo{view: t} }
func (t *txView) Sessions() repository.WorkSessionRepository { return &sessionRepo{view: t} }
func (t *txView) Audit() repository.AuditRepository          { return &auditRepo{view: t} }

func page[T any](items []T, limit, offset int) []T {
	limit, offset = repository.NormalizePage(limit, offset)
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortSessions(items []domain.WorkSession) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartedAt.Equal(items[j].StartedAt) {
			return items[i].StartedAt.After(items[j].StartedAt)
		}
		return items[i].ID > items[j].ID
	})
}
