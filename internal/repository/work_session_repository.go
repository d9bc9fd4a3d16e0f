package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// openSessionConstraint is the partial unique index allowing one row with
// a null ended_at per user.
const openSessionConstraint = "work_sessions_one_open_per_user"

type workSessionRepository struct {
	db dbtx
}

const sessionColumns = `id, ticket_id, user_id, started_at, ended_at, duration_minutes, notes, created_at`

func (r *workSessionRepository) Create(ctx context.Context, session *domain.WorkSession) error {
	const query = `
        INSERT INTO work_sessions (id, ticket_id, user_id, started_at, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.TicketID,
		session.UserID,
		session.StartedAt,
		session.Notes,
		session.CreatedAt,
	)
	if isUniqueViolation(err, openSessionConstraint) {
		return ErrOpenSessionExists
	}
	return err
}

func (r *workSessionRepository) Close(ctx context.Context, session *domain.WorkSession) error {
	const query = `
        UPDATE work_sessions SET ended_at=$1, duration_minutes=$2
        WHERE id=$3 AND ended_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, session.EndedAt, session.DurationMinutes, session.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotOpen
	}
	return nil
}

func (r *workSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions WHERE id=$1`
	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return session, nil
}

func (r *workSessionRepository) FindOpenByUser(ctx context.Context, userID string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions WHERE user_id=$1 AND ended_at IS NULL`
	session, err := scanSession(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *workSessionRepository) ListOpenByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error) {
	return r.List(ctx, WorkSessionFilter{TicketID: &ticketID, OpenOnly: true, Limit: 1000})
}

func (r *workSessionRepository) List(ctx context.Context, filter WorkSessionFilter) ([]domain.WorkSession, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.OpenOnly {
		clauses = append(clauses, "ended_at IS NULL")
	}
	limit, offset := NormalizePage(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM work_sessions WHERE %s ORDER BY started_at DESC, id DESC LIMIT %d OFFSET %d`,
		sessionColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *session)
	}
	return result, rows.Err()
}

func scanSession(row pgx.Row) (*domain.WorkSession, error) {
	var session domain.WorkSession
	if err := row.Scan(
		&session.ID,
		&session.TicketID,
		&session.UserID,
		&session.StartedAt,
		&session.EndedAt,
		&session.DurationMinutes,
		&session.Notes,
		&session.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}
