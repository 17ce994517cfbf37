package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Modalidad de facturación del suscriptor.
const (
	BillingModeConsolidated   = "consolidated"   // un cobro por todas las unidades consumidoras
	BillingModeIndividualized = "individualized" // un cobro por factura
)

// Estados del embudo comercial del suscriptor.
const (
	SubscriberStatusLead        = "lead"
	SubscriberStatusNegotiation = "negociacao"
	SubscriberStatusActivated   = "ativado"
	SubscriberStatusCanceled    = "cancelado"
)

// Address dirección de cobro enviada al gateway.
type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// Subscriber identidad y perfil de cobro de un cliente de energía por suscripción.
type Subscriber struct {
	ID                 string
	Name               string
	Document           string // CPF o CNPJ, solo dígitos
	Email              string
	Phone              string
	Address            Address
	BillingMode        string
	ConsolidatedDueDay int    // 1–31
	GatewayCustomerID  string // vacío hasta la primera sincronización con el gateway
	Status             string
	OriginatorID       string          // consultor que trajo al suscriptor (comisiones)
	DiscountPct        decimal.Decimal // fracción (0.15) o porcentaje (15)
	Tariff             decimal.Decimal // R$/kWh; cero = tarifa por defecto
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsConsolidated indica si el suscriptor recibe un cobro consolidado.
func (s *Subscriber) IsConsolidated() bool {
	return s.BillingMode == BillingModeConsolidated
}
