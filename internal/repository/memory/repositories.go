package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

type ticketRepo struct {
	view view
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.view.do(func(st *state, _ error) error {
		for id, existing := range st.tickets {
			if existing.Code == ticket.Code && id != ticket.ID {
				return repository.ErrDuplicateCode
			}
		}
		st.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.view.do(func(st *state, _ error) error {
		stored, ok := st.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if stored.Version != ticket.Version {
			return repository.ErrVersionConflict
		}
		next := *ticket
		next.Code = stored.Code
		next.ProjectID = stored.ProjectID
		next.CreatedBy = stored.CreatedBy
		next.CreatedAt = stored.CreatedAt
		next.Version = stored.Version + 1
		st.tickets[ticket.ID] = next
		ticket.Version = next.Version
		return nil
	})
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.view.do(func(st *state, _ error) error {
		ticket, ok := st.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &ticket
		return nil
	})
	return out, err
}

type sessionRepo struct {
	view view
}

func (r *sessionRepo) Create(_ context.Context, session *domain.WorkSession) error {
	return r.view.do(func(st *state, _ error) error {
		for _, existing := range st.sessions {
			if existing.UserID == session.UserID && existing.IsOpen() {
				return repository.ErrOpenSessionExists
			}
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r *sessionRepo) Close(_ context.Context, session *domain.WorkSession) error {
	return r.view.do(func(st *state, _ error) error {
		stored, ok := st.sessions[session.ID]
		if !ok || !stored.IsOpen() {
			return repository.ErrSessionNotOpen
		}
		stored.EndedAt = session.EndedAt
		stored.DurationMinutes = session.DurationMinutes
		st.sessions[session.ID] = stored
		return nil
	})
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*domain.WorkSession, error) {
	var out *domain.WorkSession
	err := r.view.do(func(st *state, _ error) error {
		session, ok := st.sessions[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &session
		return nil
	})
	return out, err
}

func (r *sessionRepo) FindOpenByUser(_ context.Context, userID string) (*domain.WorkSession, error) {
	var out *domain.WorkSession
	err := r.view.do(func(st *state, _ error) error {
		for _, session := range st.sessions {
			if session.UserID == userID && session.IsOpen() {
				s := session
				out = &s
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *sessionRepo) ListOpenByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error) {
	return r.List(ctx, repository.WorkSessionFilter{TicketID: &ticketID, OpenOnly: true, Limit: 1000})
}

func (r *sessionRepo) List(_ context.Context, filter repository.WorkSessionFilter) ([]domain.WorkSession, error) {
	var out []domain.WorkSession
	err := r.view.do(func(st *state, _ error) error {
		var matched []domain.WorkSession
		for _, session := range st.sessions {
			if filter.TicketID != nil && session.TicketID != *filter.TicketID {
				continue
			}
			if filter.UserID != nil && session.UserID != *filter.UserID {
				continue
			}
			if filter.OpenOnly && !session.IsOpen() {
				continue
			}
			matched = append(matched, session)
		}
		sortSessions(matched)
		out = page(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

type auditRepo struct {
	view view
}

func (r *auditRepo) Append(_ context.Context, record *domain.AuditRecord) error {
	return r.view.do(func(st *state, auditFail error) error {
		if auditFail != nil {
			return auditFail
		}
		st.audit = append(st.audit, *record)
		return nil
	})
}

func (r *auditRepo) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	err := r.view.do(func(st *state, _ error) error {
		var matched []domain.AuditRecord
		// Newest first; records are appended in creation order.
		for i := len(st.audit) - 1; i >= 0; i-- {
			record := st.audit[i]
			if !matchesAudit(record, filter) {
				continue
			}
			matched = append(matched, record)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		out = page(matched, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func matchesAudit(record domain.AuditRecord, filter repository.AuditFilter) bool {
	if filter.Entity != nil && record.Entity != *filter.Entity {
		return false
	}
	if filter.ActorID != nil && (record.ActorID == nil || *record.ActorID != *filter.ActorID) {
		return false
	}
	if len(filter.Actions) > 0 {
		found := false
		for _, action := range filter.Actions {
			if record.Action == action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.From != nil && record.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && record.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

type userRepo struct {
	s *Store
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.dirMu.RLock()
	defer r.s.dirMu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

type memberRepo struct {
	s *Store
}

func (r *memberRepo) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	r.s.dirMu.RLock()
	defer r.s.dirMu.RUnlock()
	_, ok := r.s.members[projectID][userID]
	return ok, nil
}
