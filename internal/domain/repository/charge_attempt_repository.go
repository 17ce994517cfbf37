package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
)

// ChargeAttemptRepository registro de emisiones con resultado desconocido.
type ChargeAttemptRepository interface {
	Create(ctx context.Context, a *entity.ChargeAttempt) error
	ListUnknown(ctx context.Context, limit int) ([]*entity.ChargeAttempt, error)
	Resolve(ctx context.Context, id, state string, at time.Time) error
	// HasUnknownForInvoices true si alguna de las facturas tiene un intento sin resolver.
	HasUnknownForInvoices(ctx context.Context, invoiceIDs []string) (bool, error)
}

// GatewayEventRepository log de eventos de webhook ya procesados.
// Un evento se registra solo después de aplicarse, para que un fallo permita la reentrega.
type GatewayEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	// Record false si el evento ya estaba registrado.
	Record(ctx context.Context, e *entity.GatewayEvent) (bool, error)
}
