package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

var _ repository.OriginatorRepository = (*OriginatorRepo)(nil)

// OriginatorRepo lectura de consultores.
type OriginatorRepo struct {
	q Querier
}

// NewOriginatorRepository construye el adaptador.
func NewOriginatorRepository(q Querier) *OriginatorRepo {
	return &OriginatorRepo{q: q}
}

// GetByID obtiene un consultor por ID.
func (r *OriginatorRepo) GetByID(ctx context.Context, id string) (*entity.Originator, error) {
	query := `
		SELECT id, name, COALESCE(phone, ''), COALESCE(pix_key, ''), start_split_pct, recurring_split_pct, created_at
		FROM originators WHERE id = $1`
	var o entity.Originator
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.Phone, &o.PixKey, &o.StartSplitPct, &o.RecurringSplitPct, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get originator: %w", err)
	}
	return &o, nil
}
