package service

import (
	"context"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/lifecycle"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// Operation names what a user is trying to do with a ticket.
type Operation string

const (
	OpView       Operation = "view"
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpTransition Operation = "transition"
	OpAssign     Operation = "assign"
	OpStartWork  Operation = "start_work"
)

// Authorizer applies role and project membership rules.
//
// Admins and managers may do anything. Only the creator may edit ticket
// fields. Project members, the creator and the assignee may view,
// transition, assign and start work.
type Authorizer struct {
	members repository.MembershipRepository
}

var _ lifecycle.Policy = (*Authorizer)(nil)

// NewAuthorizer builds the policy over a membership lookup.
func NewAuthorizer(members repository.MembershipRepository) *Authorizer {
	return &Authorizer{members: members}
}

// CanActOn reports whether user may perform op on ticket. For OpCreate
// only ticket.ProjectID is consulted.
func (a *Authorizer) CanActOn(ctx context.Context, user *domain.User, ticket *domain.Ticket, op Operation) (bool, error) {
	if user == nil || !user.Active {
		return false, nil
	}
	if user.IsPrivileged() {
		return true, nil
	}
	switch op {
	case OpUpdate:
		return ticket.CreatedBy == user.ID, nil
	case OpCreate:
		return a.members.IsMember(ctx, ticket.ProjectID, user.ID)
	case OpView, OpTransition, OpAssign, OpStartWork:
		if ticket.CreatedBy == user.ID || ticket.IsAssignee(user.ID) {
			return true, nil
		}
		return a.members.IsMember(ctx, ticket.ProjectID, user.ID)
	}
	return false, nil
}

// CanAssign implements lifecycle.Policy.
func (a *Authorizer) CanAssign(ctx context.Context, actor *domain.User, ticket *domain.Ticket) (bool, error) {
	return a.CanActOn(ctx, actor, ticket, OpAssign)
}

// Eligible implements lifecycle.Policy: assignees must be active project
// members or privileged.
func (a *Authorizer) Eligible(ctx context.Context, target *domain.User, ticket *domain.Ticket) (bool, error) {
	if target == nil || !target.Active {
		return false, nil
	}
	if target.IsPrivileged() {
		return true, nil
	}
	return a.members.IsMember(ctx, ticket.ProjectID, target.ID)
}
