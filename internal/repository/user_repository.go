package repository

import (
	"context"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type userRepository struct {
	db dbtx
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, email, role, active, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}

type membershipRepository struct {
	db dbtx
}

func (r *membershipRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id=$1 AND user_id=$2)`
	var member bool
	if err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&member); err != nil {
		return false, err
	}
	return member, nil
}
