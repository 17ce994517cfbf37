package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de cobro: referencia de ChargeMutator y tipo de intento.
const (
	ChargeKindInvoice      = "invoice"
	ChargeKindConsolidated = "consolidated"
)

// Estados del intento.
const (
	AttemptStateUnknown = "unknown" // timeout: el cobro pudo haberse creado upstream
	AttemptStateAdopted = "adopted" // se encontró el cobro y se vinculó localmente
	AttemptStateFailed  = "failed"  // no existe upstream; se puede reintentar
)

// ChargeAttempt registro de una emisión cuyo resultado se desconoce.
// No vincula facturas: solo permite que la reconciliación busque el cobro por ExternalReference.
type ChargeAttempt struct {
	ID                string
	Kind              string
	SubscriberID      string
	ConsolidatedID    string // id reservado para el consolidado (solo Kind consolidated)
	InvoiceIDs        []string
	Value             decimal.Decimal
	DueDate           time.Time
	ExternalReference string
	State             string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}
