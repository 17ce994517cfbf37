package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del cobro consolidado.
const (
	ConsolidatedStatusPending  = "pending"
	ConsolidatedStatusPaid     = "paid"
	ConsolidatedStatusCanceled = "canceled"
)

// ConsolidatedInvoice agrupa N facturas de un suscriptor en un único cobro del gateway.
// TotalValue se congela al emitir: cambios posteriores en las facturas no lo alteran.
type ConsolidatedInvoice struct {
	ID               string
	SubscriberID     string
	TotalValue       decimal.Decimal
	DueDate          time.Time
	Status           string
	GatewayPaymentID string
	GatewayStatus    string
	BoletoURL        string
	StatusVersion    int64
	InvoiceIDs       []string   // miembros activos
	LastSyncedAt     *time.Time // última consulta de reconciliación
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive pending o paid: sus miembros se consideran cubiertos.
func (c *ConsolidatedInvoice) IsActive() bool {
	return c.Status == ConsolidatedStatusPending || c.Status == ConsolidatedStatusPaid
}
