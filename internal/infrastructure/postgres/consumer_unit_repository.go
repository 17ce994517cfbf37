package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

var _ repository.ConsumerUnitRepository = (*ConsumerUnitRepo)(nil)

// ConsumerUnitRepo implementación de ConsumerUnitRepository.
type ConsumerUnitRepo struct {
	q Querier
}

// NewConsumerUnitRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsumerUnitRepository(q Querier) *ConsumerUnitRepo {
	return &ConsumerUnitRepo{q: q}
}

const consumerUnitColumns = `
	id, COALESCE(subscriber_id::text, ''), COALESCE(holder_name, ''), COALESCE(provider, ''),
	average_consumption_kwh, COALESCE(due_day, 0), created_at, updated_at`

func scanConsumerUnit(row pgx.Row) (*entity.ConsumerUnit, error) {
	var u entity.ConsumerUnit
	if err := row.Scan(&u.ID, &u.SubscriberID, &u.HolderName, &u.Provider,
		&u.AverageConsumptionKWh, &u.DueDay, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID obtiene una unidad consumidora por ID.
func (r *ConsumerUnitRepo) GetByID(ctx context.Context, id string) (*entity.ConsumerUnit, error) {
	u, err := scanConsumerUnit(r.q.QueryRow(ctx, `SELECT `+consumerUnitColumns+` FROM consumer_units WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consumer unit: %w", err)
	}
	return u, nil
}

// ListBySubscriber lista las unidades vinculadas al suscriptor.
func (r *ConsumerUnitRepo) ListBySubscriber(ctx context.Context, subscriberID string) ([]*entity.ConsumerUnit, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+consumerUnitColumns+` FROM consumer_units WHERE subscriber_id = $1 ORDER BY created_at`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list consumer units: %w", err)
	}
	defer rows.Close()
	var list []*entity.ConsumerUnit
	for rows.Next() {
		u, err := scanConsumerUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consumer unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
