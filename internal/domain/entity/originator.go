package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Originator consultor comercial que recibe comisión sobre sus suscriptores.
type Originator struct {
	ID                string
	Name              string
	Phone             string
	PixKey            string
	StartSplitPct     decimal.Decimal // % sobre la activación
	RecurringSplitPct decimal.Decimal // % sobre cada factura paga
	CreatedAt         time.Time
}
