package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type auditRepository struct {
	db dbtx
}

// Append inserts the record under its own savepoint (or transaction when
// used outside one), so a failed audit insert never aborts the
// surrounding business transaction.
func (r *auditRepository) Append(ctx context.Context, record *domain.AuditRecord) error {
	payload, err := domain.EncodeAuditPayload(record.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	const query = `
        INSERT INTO audit_records (id, action, actor_id, entity_kind, entity_id, description, payload, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	return pgx.BeginFunc(ctx, r.db, func(sp pgx.Tx) error {
		_, err := sp.Exec(ctx, query,
			record.ID,
			record.Action,
			record.ActorID,
			record.Entity.Kind,
			record.Entity.ID,
			record.Description,
			payload,
			record.CreatedAt,
		)
		return err
	})
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditRecord, error) {
	base := `SELECT id, action, actor_id, entity_kind, entity_id, description, payload, created_at
             FROM audit_records`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Entity != nil {
		args = append(args, filter.Entity.Kind, filter.Entity.ID)
		clauses = append(clauses, fmt.Sprintf("entity_kind=$%d AND entity_id=$%d", len(args)-1, len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id=$%d", len(args)))
	}
	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, action := range filter.Actions {
			args = append(args, action)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("action IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	limit, offset := NormalizePage(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, seq DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditRecord
	for rows.Next() {
		var (
			record domain.AuditRecord
			raw    []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.Action,
			&record.ActorID,
			&record.Entity.Kind,
			&record.Entity.ID,
			&record.Description,
			&raw,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		if record.Payload, err = domain.DecodeAuditPayload(record.Action, raw); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
