package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados locales de la factura.
const (
	InvoiceStatusPending  = "a_vencer"
	InvoiceStatusPaid     = "pago"
	InvoiceStatusOverdue  = "atrasado"
	InvoiceStatusCanceled = "cancelado"
)

// Invoice obligación de cobro de una unidad consumidora en un período.
// Con GatewayPaymentID presente, valor y vencimiento solo cambian vía ChargeMutator.
type Invoice struct {
	ID               string
	ConsumerUnitID   string
	SubscriberID     string
	Period           string // YYYY-MM
	AmountDue        decimal.Decimal
	DueDate          time.Time
	ConsumptionKWh   decimal.Decimal
	Status           string
	GatewayPaymentID string // id del cobro individual en el gateway
	GatewayStatus    string // espejo del estado crudo del gateway
	BoletoURL        string
	StatusVersion    int64 // versión para compare-and-swap de estado
	StatusChangedAt  time.Time
	LastSyncedAt     *time.Time // última consulta de reconciliación
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasDirectCharge indica si la factura tiene cobro propio en el gateway.
func (i *Invoice) HasDirectCharge() bool {
	return i.GatewayPaymentID != ""
}
