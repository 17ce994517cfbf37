package repository

import (
	"context"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
)

// LedgerRepository puerto append-only del libro de movimientos.
type LedgerRepository interface {
	// Append false si ya existía un asiento con la misma IdempotencyKey.
	Append(ctx context.Context, e *entity.LedgerEntry) (bool, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.LedgerEntry, error)
}
