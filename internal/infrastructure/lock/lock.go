// Package lock provee el lease por suscriptor que serializa la emisión consolidada.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
)

// pollInterval espera entre intentos mientras el lease está tomado.
const pollInterval = 50 * time.Millisecond

// Locker adquiere un lease exclusivo sobre key durante ttl.
// Espera hasta wait; si no lo obtiene devuelve un error que envuelve domain.ErrConflict.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

type tryFunc func(ctx context.Context) (bool, error)

// acquireLoop reintenta try hasta obtener el lease, agotar wait o cancelarse el ctx.
func acquireLoop(ctx context.Context, key string, wait time.Duration, try tryFunc) error {
	deadline := time.Now().Add(wait)
	for {
		ok, err := try(ctx)
		if err != nil {
			return fmt.Errorf("lease %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lease %s ocupado: %w", key, domain.ErrConflict)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("lease %s: %w", key, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
