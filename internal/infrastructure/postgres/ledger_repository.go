package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro append-only; la idempotency_key única evita asientos duplicados.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el asiento; false si la clave ya existía.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO ledger_entries (id, amount, kind, reference_type, reference_id, originator_id,
		                            subscriber_id, environment, description, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		e.ID, e.Amount, e.Kind, e.ReferenceType, e.ReferenceID, nullIfEmpty(e.OriginatorID),
		nullIfEmpty(e.SubscriberID), e.Environment, nullIfEmpty(e.Description), e.IdempotencyKey, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("append ledger entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByReference asientos de una referencia en orden cronológico.
func (r *LedgerRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, amount, kind, reference_type, reference_id, COALESCE(originator_id::text, ''),
		       COALESCE(subscriber_id::text, ''), environment, COALESCE(description, ''), idempotency_key, created_at
		FROM ledger_entries WHERE reference_type = $1 AND reference_id = $2 ORDER BY created_at`,
		referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Amount, &e.Kind, &e.ReferenceType, &e.ReferenceID, &e.OriginatorID,
			&e.SubscriberID, &e.Environment, &e.Description, &e.IdempotencyKey, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
