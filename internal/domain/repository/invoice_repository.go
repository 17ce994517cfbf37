package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ChargeLink datos del cobro que se vinculan a una factura o consolidado.
type ChargeLink struct {
	GatewayPaymentID string
	GatewayStatus    string
	BoletoURL        string
}

// StatusChange escritura de estado con compare-and-swap sobre status_version.
type StatusChange struct {
	ID              string
	ExpectedVersion int64
	Status          string
	GatewayStatus   string
	ChangedAt       time.Time
}

// InvoiceRepository define el puerto de persistencia para Invoice.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Invoice, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entity.Invoice, error)
	// Coverage calcula en una sola consulta si la factura está sin cobro,
	// con cobro propio o dentro de un consolidado activo.
	Coverage(ctx context.Context, id string) (entity.ChargeCoverage, error)
	// AttachCharge vincula el cobro solo si gateway_payment_id sigue NULL. false = perdió la carrera.
	AttachCharge(ctx context.Context, id string, link ChargeLink) (bool, error)
	// UpdateChargeTerms refleja localmente valor y/o vencimiento ya aceptados por el gateway.
	UpdateChargeTerms(ctx context.Context, id string, amount *decimal.Decimal, dueDate *time.Time) error
	// UpdateStatus false si la versión cambió (otro escritor llegó antes).
	UpdateStatus(ctx context.Context, change StatusChange) (bool, error)
	// ListOpenCharges facturas con cobro propio aún abiertas y sin cambios desde before.
	ListOpenCharges(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error)
	// MarkSynced mueve la factura al final de la rotación de ListOpenCharges.
	MarkSynced(ctx context.Context, id string, at time.Time) error
	// ListByConsolidated miembros activos de un consolidado.
	ListByConsolidated(ctx context.Context, consolidatedID string) ([]*entity.Invoice, error)
}

// ConsolidatedInvoiceRepository define el puerto de persistencia para ConsolidatedInvoice.
type ConsolidatedInvoiceRepository interface {
	// Create inserta cabecera e ítems activos. El índice parcial único rechaza miembros ya cubiertos (ErrConflict).
	Create(ctx context.Context, c *entity.ConsolidatedInvoice) error
	GetByID(ctx context.Context, id string) (*entity.ConsolidatedInvoice, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entity.ConsolidatedInvoice, error)
	UpdateChargeTerms(ctx context.Context, id string, total *decimal.Decimal, dueDate *time.Time) error
	UpdateStatus(ctx context.Context, change StatusChange) (bool, error)
	// Deactivate marca el consolidado como cancelado y libera sus ítems.
	Deactivate(ctx context.Context, id string, gatewayStatus string, at time.Time) error
	ListOpenCharges(ctx context.Context, before time.Time, limit int) ([]*entity.ConsolidatedInvoice, error)
	MarkSynced(ctx context.Context, id string, at time.Time) error
}
