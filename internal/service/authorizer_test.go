package service

import (
	"context"
	"testing"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memory"
)

func TestAuthorizerRules(t *testing.T) {
	store := memory.New()
	store.AddMember("proj", "member")
	authz := NewAuthorizer(store.Memberships())

	assignee := "assignee"
	ticket := &domain.Ticket{ProjectID: "proj", CreatedBy: "creator", AssigneeID: &assignee}
	user := func(id string, role domain.UserRole) *domain.User {
		return &domain.User{ID: id, Role: role, Active: true}
	}

	tests := []struct {
		name string
		user *domain.User
		op   Operation
		want bool
	}{
		{"nil user", nil, OpView, false},
		{"inactive admin", &domain.User{ID: "a", Role: domain.UserRoleAdmin}, OpView, false},
		{"manager updates", user("m", domain.UserRoleManager), OpUpdate, true},
		{"creator updates", user("creator", domain.UserRoleEmployee), OpUpdate, true},
		{"assignee cannot update", user("assignee", domain.UserRoleEmployee), OpUpdate, false},
		{"member cannot update", user("member", domain.UserRoleEmployee), OpUpdate, false},
		{"member transitions", user("member", domain.UserRoleEmployee), OpTransition, true},
		{"assignee starts work", user("assignee", domain.UserRoleEmployee), OpStartWork, true},
		{"creator views", user("creator", domain.UserRoleEmployee), OpView, true},
		{"stranger views", user("stranger", domain.UserRoleEmployee), OpView, false},
		{"member creates", user("member", domain.UserRoleEmployee), OpCreate, true},
		{"creator outside project cannot create", user("creator", domain.UserRoleEmployee), OpCreate, false},
		{"unknown op", user("member", domain.UserRoleEmployee), Operation("delete"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authz.CanActOn(context.Background(), tt.user, ticket, tt.op)
			if err != nil {
				t.Fatalf("CanActOn: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanActOn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizerEligible(t *testing.T) {
	store := memory.New()
	store.AddMember("proj", "member")
	authz := NewAuthorizer(store.Memberships())
	ticket := &domain.Ticket{ProjectID: "proj"}

	cases := map[string]struct {
		user *domain.User
		want bool
	}{
		"member":          {&domain.User{ID: "member", Role: domain.UserRoleEmployee, Active: true}, true},
		"inactive member": {&domain.User{ID: "member", Role: domain.UserRoleEmployee}, false},
		"outsider":        {&domain.User{ID: "x", Role: domain.UserRoleEmployee, Active: true}, false},
		"admin":           {&domain.User{ID: "root", Role: domain.UserRoleAdmin, Active: true}, true},
		"nil":             {nil, false},
	}
	for name, c := range cases {
		got, err := authz.Eligible(context.Background(), c.user, ticket)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != c.want {
			t.Errorf("%s: Eligible = %v, want %v", name, got, c.want)
		}
	}
}
