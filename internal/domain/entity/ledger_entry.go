package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asiento.
const (
	LedgerKindCommission       = "commission"
	LedgerKindPaymentReceived  = "payment_received"
	LedgerKindConsolidatedPaid = "consolidated_payment_received"
)

// Tipos de referencia del asiento.
const (
	LedgerRefInvoice      = "invoice"
	LedgerRefConsolidated = "consolidated_invoice"
	LedgerRefSubscriber   = "subscriber"
)

// LedgerEntry asiento contable inmutable. Amount positivo = débito/salida, negativo = crédito/entrada.
type LedgerEntry struct {
	ID             string
	Amount         decimal.Decimal
	Kind           string
	ReferenceType  string
	ReferenceID    string
	OriginatorID   string
	SubscriberID   string
	Environment    string // sandbox | production
	Description    string
	IdempotencyKey string
	CreatedAt      time.Time
}
