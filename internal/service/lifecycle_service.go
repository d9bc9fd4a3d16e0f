package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/audit"
	"github.com/spec-kit/ticket-lifecycle/internal/clock"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/lifecycle"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/worksession"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// Locker serializes work per key across processes. Lock returns the
// release function.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LifecycleService is the single entry point for ticket lifecycle and
// work session operations. Each operation runs in one store transaction;
// events are published only after it commits.
type LifecycleService struct {
	store      repository.Store
	machine    *lifecycle.Machine
	sessions   *worksession.Manager
	audit      *audit.Log
	authz      *Authorizer
	dispatcher events.Dispatcher
	locker     Locker
	clock      clock.Clock
	logger     *zap.Logger
	codes      func(time.Time) string
}

// maxCodeAttempts bounds ticket code regeneration after a collision.
const maxCodeAttempts = 5

// LifecycleDependencies bundles collaborators for the service. Only Store
// is required.
type LifecycleDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Locker     Locker
	Clock      clock.Clock
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewLifecycleService wires the audit log, session manager and state
// machine over deps.Store.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLog := audit.NewLog(clk, logger, deps.Metrics)
	sessions := worksession.NewManager(auditLog, clk)
	return &LifecycleService{
		store:      deps.Store,
		machine:    lifecycle.NewMachine(sessions, auditLog, clk),
		sessions:   sessions,
		audit:      auditLog,
		authz:      NewAuthorizer(deps.Store.Memberships()),
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		clock:      clk,
		logger:     logger,
		codes:      generateTicketCode,
	}
}

// CreateTicketInput describes a new ticket.
type CreateTicketInput struct {
	ProjectID   string
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
	AssigneeID  *string
}

// UpdateTicketInput carries field edits. Nil fields are left alone; an
// empty AssigneeID clears the assignee. Status is accepted only when it
// equals the current status.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Priority    *domain.TicketPriority
	AssigneeID  *string
	Status      *domain.TicketStatus
}

// ActiveSession is an open session with the minutes worked so far.
type ActiveSession struct {
	Session        domain.WorkSession
	ElapsedMinutes int
}

// WorkSessionQuery filters session listings.
type WorkSessionQuery struct {
	TicketID *string
	UserID   *string
	OpenOnly bool
	Limit    int
	Offset   int
}

// AuditQuery filters audit listings.
type AuditQuery struct {
	TicketID *string
	ActorID  *string
	Actions  []domain.AuditAction
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// CreateTicket creates a ticket in status new on behalf of actor.
func (s *LifecycleService) CreateTicket(ctx context.Context, actor *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.TicketStatusNew,
		ProjectID:   input.ProjectID,
		CreatedBy:   actor.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	allowed, err := s.authz.CanActOn(ctx, actor, ticket, OpCreate)
	if err != nil {
		return nil, s.translate(err, nil)
	}
	if !allowed {
		return nil, s.translate(domain.ErrNotAuthorized, map[string]any{"project_id": input.ProjectID})
	}
	if input.AssigneeID != nil {
		target, err := s.eligibleAssignee(ctx, *input.AssigneeID, ticket)
		if err != nil {
			return nil, s.translate(err, map[string]any{"assignee_id": *input.AssigneeID})
		}
		ticket.AssigneeID = &target.ID
	}

	// A code collision aborts the transaction, so each attempt runs in a
	// fresh one.
	for attempt := 1; ; attempt++ {
		ticket.Code = s.codes(now)
		err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
			if err := tx.Tickets().Create(ctx, ticket); err != nil {
				return err
			}
			actorID := actor.ID
			s.audit.Record(ctx, tx.Audit(), audit.Entry{
				ActorID:     &actorID,
				Entity:      ticket.Ref(),
				Description: fmt.Sprintf("Created ticket %s: %s", ticket.Code, ticket.Title),
				Payload:     domain.CreatePayload{TicketCode: ticket.Code, Title: ticket.Title},
			})
			return nil
		})
		if !errors.Is(err, repository.ErrDuplicateCode) || attempt == maxCodeAttempts {
			break
		}
		s.logger.Debug("ticket code collision; regenerating", zap.String("code", ticket.Code), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, s.translate(err, map[string]any{"code": ticket.Code})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(actor.ID),
		Payload: events.TicketCreatedPayload{
			Code:       ticket.Code,
			ProjectID:  ticket.ProjectID,
			Priority:   ticket.Priority,
			Category:   ticket.Category,
			Title:      ticket.Title,
			AssigneeID: ticket.AssigneeID,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket actor may view.
func (s *LifecycleService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.translate(err, map[string]any{"ticket_id": ticketID})
	}
	if err := s.authorize(ctx, actor, ticket, OpView); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket edits non-status fields and records a field-by-field diff.
// An update that changes nothing writes nothing.
func (s *LifecycleService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input UpdateTicketInput) (*domain.Ticket, error) {
	if err := validateUpdate(&input); err != nil {
		return nil, err
	}

	var (
		updated *domain.Ticket
		changes []domain.FieldChange
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		current, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, current, OpUpdate); err != nil {
			return err
		}
		if input.Status != nil && *input.Status != current.Status {
			return apperrors.NewValidationError("status changes must use a transition", map[string]any{"status": *input.Status})
		}

		next := *current
		var summary []string
		changes, summary, err = s.applyUpdate(ctx, &next, current, input)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			updated = current
			return nil
		}

		next.UpdatedAt = s.clock.Now()
		if err := tx.Tickets().Update(ctx, &next); err != nil {
			return err
		}
		actorID := actor.ID
		s.audit.Record(ctx, tx.Audit(), audit.Entry{
			ActorID:     &actorID,
			Entity:      next.Ref(),
			Description: fmt.Sprintf("Updated ticket %s: %s", next.Code, strings.Join(summary, ", ")),
			Payload:     domain.UpdatePayload{Changes: changes},
		})
		updated = &next
		return nil
	})
	if err != nil {
		return nil, s.translate(err, map[string]any{"ticket_id": ticketID})
	}

	if len(changes) > 0 {
		fields := make([]string, 0, len(changes))
		for _, c := range changes {
			fields = append(fields, c.Field)
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: updated.ID,
			Actor:    userActor(actor.ID),
			Payload:  events.TicketUpdatedPayload{Fields: fields},
		})
	}
	return updated, nil
}

// applyUpdate writes input onto next and returns the changes with their
// human-readable summaries.
func (s *LifecycleService) applyUpdate(ctx context.Context, next, current *domain.Ticket, input UpdateTicketInput) ([]domain.FieldChange, []string, error) {
	var (
		changes []domain.FieldChange
		summary []string
	)
	record := func(field, oldVal, newVal, text string) {
		changes = append(changes, domain.FieldChange{Field: field, Old: oldVal, New: newVal})
		summary = append(summary, text)
	}

	if input.Title != nil && *input.Title != current.Title {
		next.Title = *input.Title
		record("title", current.Title, next.Title, fmt.Sprintf("title from '%s' to '%s'", current.Title, next.Title))
	}
	if input.Description != nil && *input.Description != current.Description {
		next.Description = *input.Description
		record("description", current.Description, next.Description, "description")
	}
	if input.Category != nil && *input.Category != current.Category {
		next.Category = *input.Category
		record("category", string(current.Category), string(next.Category),
			fmt.Sprintf("category from '%s' to '%s'", current.Category, next.Category))
	}
	if input.Priority != nil && *input.Priority != current.Priority {
		next.Priority = *input.Priority
		record("priority", string(current.Priority), string(next.Priority),
			fmt.Sprintf("priority from '%s' to '%s'", current.Priority, next.Priority))
	}

	if input.AssigneeID != nil {
		oldID := ""
		if current.AssigneeID != nil {
			oldID = *current.AssigneeID
		}
		newID := *input.AssigneeID
		if newID != oldID {
			var target *domain.User
			if newID == "" {
				if !current.Status.AllowsUnassigned() {
					return nil, nil, domain.ErrMissingAssignee
				}
				next.AssigneeID = nil
			} else {
				var err error
				target, err = s.eligibleAssignee(ctx, newID, current)
				if err != nil {
					return nil, nil, err
				}
				next.AssigneeID = &target.ID
			}
			previous := s.lookupUser(ctx, current.AssigneeID)
			record("assignee", oldID, newID,
				fmt.Sprintf("assignee from '%s' to '%s'", previous.DisplayName(), target.DisplayName()))
		}
	}
	return changes, summary, nil
}

// RequestTransition moves a ticket to status to. Entering in_progress from
// new or reopened opens a session for actor; entering closed closes every
// open session on the ticket.
func (s *LifecycleService) RequestTransition(ctx context.Context, actor *domain.User, ticketID string, to domain.TicketStatus) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if to == domain.TicketStatusInProgress {
		unlock := s.lockUser(ctx, actor.ID)
		defer unlock()
	}

	var (
		result *lifecycle.Transition
		from   domain.TicketStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, ticket, OpTransition); err != nil {
			return err
		}
		from = ticket.Status
		result, err = s.machine.RequestTransition(ctx, tx, ticket, to, actor.ID)
		return err
	})
	if err != nil {
		details := map[string]any{"ticket_id": ticketID, "status": to}
		if errors.Is(err, domain.ErrInvalidTransition) {
			details["current_status"] = from
			details["allowed"] = s.machine.Allowed(from)
		}
		return nil, s.translate(err, details)
	}

	for i := range result.ClosedSessions {
		s.publishSessionEvent(ctx, events.EventWorkStopped, nil, &result.ClosedSessions[i], true)
	}
	if result.OpenedSession != nil {
		s.publishSessionEvent(ctx, events.EventWorkStarted, &actor.ID, result.OpenedSession, false)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: result.Ticket.ID,
		Actor:    userActor(actor.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: result.OldStatus,
			NewStatus: result.Ticket.Status,
		},
	})
	return result.Ticket, nil
}

// AssignTicket sets the ticket's assignee to targetUserID.
func (s *LifecycleService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, targetUserID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	var (
		updated  *domain.Ticket
		previous *string
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		// An unknown target is passed as nil. Assign rejects it only after
		// authorising the actor.
		target, err := s.store.Users().GetByID(ctx, targetUserID)
		if errors.Is(err, repository.ErrNotFound) {
			target, err = nil, nil
		}
		if err != nil {
			return err
		}
		previous = ticket.AssigneeID
		updated, err = s.machine.Assign(ctx, tx, s.authz, lifecycle.AssignRequest{
			Ticket:   ticket,
			Target:   target,
			Previous: s.lookupUser(ctx, ticket.AssigneeID),
			Actor:    actor,
		})
		return err
	})
	if err != nil {
		return nil, s.translate(err, map[string]any{"ticket_id": ticketID, "assignee_id": targetUserID})
	}

	if previous == nil || *previous != *updated.AssigneeID {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: updated.ID,
			Actor:    userActor(actor.ID),
			Payload: events.TicketAssignedPayload{
				OldAssigneeID: previous,
				NewAssigneeID: updated.AssigneeID,
			},
		})
	}
	return updated, nil
}

// StartWork opens a session for actor on the ticket.
func (s *LifecycleService) StartWork(ctx context.Context, actor *domain.User, ticketID, notes string) (*domain.WorkSession, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	unlock := s.lockUser(ctx, actor.ID)
	defer unlock()

	var session *domain.WorkSession
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, actor, ticket, OpStartWork); err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return domain.ErrTicketClosed
		}
		session, err = s.sessions.Open(ctx, tx, actor.ID, ticket, strings.TrimSpace(notes))
		return err
	})
	if err != nil {
		return nil, s.translate(err, map[string]any{"ticket_id": ticketID})
	}

	s.publishSessionEvent(ctx, events.EventWorkStarted, &actor.ID, session, false)
	return session, nil
}

// StopWork closes actor's session.
func (s *LifecycleService) StopWork(ctx context.Context, actor *domain.User, sessionID string) (*domain.WorkSession, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	var closed *domain.WorkSession
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		session, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		code := session.TicketID
		if ticket, err := tx.Tickets().GetByID(ctx, session.TicketID); err == nil {
			code = ticket.Code
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		closed, err = s.sessions.Close(ctx, tx, session, actor.ID, code)
		return err
	})
	if err != nil {
		return nil, s.translate(err, map[string]any{"work_session_id": sessionID})
	}

	s.publishSessionEvent(ctx, events.EventWorkStopped, &actor.ID, closed, false)
	return closed, nil
}

// GetActiveSession returns actor's open session, or nil when there is none.
func (s *LifecycleService) GetActiveSession(ctx context.Context, actor *domain.User) (*ActiveSession, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	session, err := s.sessions.FindOpen(ctx, s.store.Sessions(), actor.ID)
	if err != nil {
		return nil, s.translate(err, nil)
	}
	if session == nil {
		return nil, nil
	}
	return &ActiveSession{
		Session:        *session,
		ElapsedMinutes: domain.ElapsedMinutes(session.StartedAt, s.clock.Now()),
	}, nil
}

// GetTicketActiveSession returns the open session on a ticket the actor
// may view, or nil when nobody is working it.
func (s *LifecycleService) GetTicketActiveSession(ctx context.Context, actor *domain.User, ticketID string) (*ActiveSession, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	session, err := s.sessions.FindOpenForTicket(ctx, s.store.Sessions(), ticketID)
	if err != nil {
		return nil, s.translate(err, map[string]any{"ticket_id": ticketID})
	}
	if session == nil {
		return nil, nil
	}
	return &ActiveSession{
		Session:        *session,
		ElapsedMinutes: domain.ElapsedMinutes(session.StartedAt, s.clock.Now()),
	}, nil
}

// ListWorkSessions lists sessions, newest first. Without a ticket,
// non-privileged users see only their own sessions.
func (s *LifecycleService) ListWorkSessions(ctx context.Context, actor *domain.User, query WorkSessionQuery) ([]domain.WorkSession, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if query.TicketID != nil {
		if _, err := s.GetTicket(ctx, actor, *query.TicketID); err != nil {
			return nil, err
		}
	} else if !actor.IsPrivileged() {
		if query.UserID != nil && *query.UserID != actor.ID {
			return nil, s.translate(domain.ErrNotAuthorized, nil)
		}
		query.UserID = &actor.ID
	}

	sessions, err := s.store.Sessions().List(ctx, repository.WorkSessionFilter{
		TicketID: query.TicketID,
		UserID:   query.UserID,
		OpenOnly: query.OpenOnly,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, s.translate(err, nil)
	}
	return sessions, nil
}

// ListAuditRecords lists audit records newest first. Non-privileged users
// must scope the query to a ticket they can view or to their own actions.
func (s *LifecycleService) ListAuditRecords(ctx context.Context, actor *domain.User, query AuditQuery) ([]domain.AuditRecord, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	for _, action := range query.Actions {
		if !action.Valid() {
			return nil, apperrors.NewValidationError("unknown audit action", map[string]any{"action": action})
		}
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, apperrors.NewValidationError("time range end precedes start", nil)
	}

	filter := repository.AuditFilter{
		ActorID: query.ActorID,
		Actions: query.Actions,
		From:    query.From,
		To:      query.To,
		Limit:   query.Limit,
		Offset:  query.Offset,
	}
	switch {
	case query.TicketID != nil:
		if _, err := s.GetTicket(ctx, actor, *query.TicketID); err != nil {
			return nil, err
		}
		filter.Entity = &domain.EntityRef{Kind: domain.EntityTicket, ID: *query.TicketID}
	case actor.IsPrivileged():
	case query.ActorID != nil && *query.ActorID == actor.ID:
	default:
		return nil, s.translate(domain.ErrNotAuthorized, nil)
	}

	records, err := s.audit.List(ctx, s.store.Audit(), filter)
	if err != nil {
		return nil, s.translate(err, nil)
	}
	return records, nil
}

func (s *LifecycleService) authorize(ctx context.Context, actor *domain.User, ticket *domain.Ticket, op Operation) error {
	allowed, err := s.authz.CanActOn(ctx, actor, ticket, op)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrNotAuthorized
	}
	return nil
}

// eligibleAssignee resolves userID and checks it may hold ticket.
func (s *LifecycleService) eligibleAssignee(ctx context.Context, userID string, ticket *domain.Ticket) (*domain.User, error) {
	target, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidAssignee
		}
		return nil, err
	}
	ok, err := s.authz.Eligible(ctx, target, ticket)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidAssignee
	}
	return target, nil
}

// lookupUser resolves id for display. Unknown users keep their id.
func (s *LifecycleService) lookupUser(ctx context.Context, id *string) *domain.User {
	if id == nil || *id == "" {
		return nil
	}
	user, err := s.store.Users().GetByID(ctx, *id)
	if err != nil {
		return &domain.User{ID: *id}
	}
	return user
}

func (s *LifecycleService) lockUser(ctx context.Context, userID string) func() {
	if s.locker == nil {
		return func() {}
	}
	unlock, err := s.locker.Lock(ctx, "work-session:"+userID)
	if err != nil {
		s.logger.Warn("per-user lock unavailable; relying on store constraint",
			zap.Error(err), zap.String("user_id", userID))
		return func() {}
	}
	return unlock
}

func validateCreate(input *CreateTicketInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.ProjectID = strings.TrimSpace(input.ProjectID)

	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	if input.ProjectID == "" {
		details["project_id"] = "required"
	}
	if input.Category == "" {
		input.Category = domain.TicketCategoryTask
	}
	if !input.Category.Valid() {
		details["category"] = "must be one of bug, task, feature"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) == "" {
		input.AssigneeID = nil
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func validateUpdate(input *UpdateTicketInput) error {
	details := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			details["title"] = "must not be empty"
		}
		input.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		input.Description = &description
	}
	if input.Category != nil && !input.Category.Valid() {
		details["category"] = "must be one of bug, task, feature"
	}
	if input.Priority != nil && !input.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if input.Status != nil && !input.Status.Valid() {
		details["status"] = "unknown status"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket update", details)
	}
	return nil
}

// generateTicketCode returns TKT-YYYYMMDD-XXXX.
func generateTicketCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), suffix)
}

func (s *LifecycleService) publishSessionEvent(ctx context.Context, eventType events.EventType, actorID *string, session *domain.WorkSession, automatic bool) {
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: session.TicketID,
		Actor:    events.Actor{UserID: actorID},
		Payload: events.WorkSessionPayload{
			SessionID:       session.ID,
			UserID:          session.UserID,
			StartedAt:       session.StartedAt,
			EndedAt:         session.EndedAt,
			DurationMinutes: session.DurationMinutes,
			Automatic:       automatic,
		},
	})
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{UserID: &userID}
}
