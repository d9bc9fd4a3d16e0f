package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx. Begin on a pgx.Tx
// opens a savepoint.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTx struct {
	db dbtx
}

func (t *pgTx) Tickets() TicketRepository       { return &ticketRepository{db: t.db} }
func (t *pgTx) Sessions() WorkSessionRepository { return &workSessionRepository{db: t.db} }
func (t *pgTx) Audit() AuditRepository          { return &auditRepository{db: t.db} }

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pgTx
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgTx: pgTx{db: pool}, pool: pool}
}

// Users returns the read-only user directory.
func (s *PostgresStore) Users() UserRepository {
	return &userRepository{db: s.pool}
}

// Memberships returns the project membership lookup.
func (s *PostgresStore) Memberships() MembershipRepository {
	return &membershipRepository{db: s.pool}
}

// WithinTx runs fn in a transaction, committing when fn returns nil.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{db: tx})
	})
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
