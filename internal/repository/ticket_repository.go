package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// ticketCodeConstraint is the unique constraint Postgres names for
// tickets.code.
const ticketCodeConstraint = "tickets_code_key"

type ticketRepository struct {
	db dbtx
}

const ticketColumns = `id, code, title, description, category, priority, status, project_id, assignee_id,
               created_by, version, created_at, updated_at, in_progress_at, qa_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, code, title, description, category, priority, status, project_id,
            assignee_id, created_by, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ProjectID,
		ticket.AssigneeID,
		ticket.CreatedBy,
		ticket.Version,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return mapTicketInsertError(err)
}

func mapTicketInsertError(err error) error {
	if isUniqueViolation(err, ticketCodeConstraint) {
		return ErrDuplicateCode
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5, assignee_id=$6,
            in_progress_at=$7, qa_at=$8, closed_at=$9, updated_at=$10, version=version+1
        WHERE id=$11 AND version=$12`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.InProgressAt,
		ticket.QAAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ProjectID,
		&ticket.AssigneeID,
		&ticket.CreatedBy,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.InProgressAt,
		&ticket.QAAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
