package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed migrations/0001_init.sql
var initSchema string

// Migrate aplica el esquema (CREATE ... IF NOT EXISTS, seguro de repetir).
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, initSchema); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}
