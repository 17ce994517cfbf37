package dto

import "github.com/shopspring/decimal"

// Modos de emisión en POST /api/charges.
const (
	ChargeModeIndividual   = "individual"
	ChargeModeConsolidated = "consolidated"
)

// IssueChargeRequest body para POST /api/charges.
// mode=individual exige exactamente una factura; consolidated admite varias.
type IssueChargeRequest struct {
	SubscriberID string   `json:"subscriber_id"`
	Mode         string   `json:"mode"`
	InvoiceIDs   []string `json:"invoice_ids,omitempty"`
	DueDate      string   `json:"due_date,omitempty"` // YYYY-MM-DD
}

// IssueChargeResponse resultado de la emisión.
type IssueChargeResponse struct {
	Success               bool            `json:"success"`
	GatewayChargeID       string          `json:"gateway_charge_id"`
	BoletoURL             string          `json:"boleto_url,omitempty"`
	ConsolidatedInvoiceID string          `json:"consolidated_invoice_id,omitempty"`
	Value                 decimal.Decimal `json:"value"`
	DueDate               string          `json:"due_date"`
}

// UpdateChargeRequest body para PUT /api/charges/:kind/:id.
type UpdateChargeRequest struct {
	Value   *decimal.Decimal `json:"value,omitempty"`
	DueDate string           `json:"due_date,omitempty"`
}

// AddressDTO dirección de cobro.
type AddressDTO struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// SaveSubscriberRequest body para PUT /api/subscribers/:id.
type SaveSubscriberRequest struct {
	Name               string           `json:"name"`
	Document           string           `json:"document"`
	Email              string           `json:"email,omitempty"`
	Phone              string           `json:"phone,omitempty"`
	Address            AddressDTO       `json:"address"`
	BillingMode        string           `json:"billing_mode"`
	ConsolidatedDueDay int              `json:"consolidated_due_day,omitempty"`
	Status             string           `json:"status"`
	OriginatorID       string           `json:"originator_id,omitempty"`
	DiscountPct        decimal.Decimal  `json:"discount_pct"`
	Tariff             *decimal.Decimal `json:"tariff,omitempty"`
}

// SubscriberResponse suscriptor en respuestas.
type SubscriberResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Document           string          `json:"document"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Address            AddressDTO      `json:"address"`
	BillingMode        string          `json:"billing_mode"`
	ConsolidatedDueDay int             `json:"consolidated_due_day,omitempty"`
	Status             string          `json:"status"`
	OriginatorID       string          `json:"originator_id,omitempty"`
	DiscountPct        decimal.Decimal `json:"discount_pct"`
	GatewayCustomerID  string          `json:"gateway_customer_id,omitempty"`
}

// SaveSubscriberResponse suscriptor guardado más el resultado de la sincronización con el gateway.
// La sincronización no bloquea el guardado: un fallo se informa en SyncError.
type SaveSubscriberResponse struct {
	Subscriber SubscriberResponse `json:"subscriber"`
	Synced     bool               `json:"synced"`
	SyncError  string             `json:"sync_error,omitempty"`
}

// CoverageResponse cobertura de cobro de una factura.
type CoverageResponse struct {
	InvoiceID        string `json:"invoice_id"`
	Kind             string `json:"kind"` // uncharged | direct_charge | consolidated_member
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	ConsolidatedID   string `json:"consolidated_invoice_id,omitempty"`
}

// WebhookAck respuesta del webhook.
type WebhookAck struct {
	Received bool `json:"received"`
}

// WebhookError error del webhook ({"error": msg}).
type WebhookError struct {
	Error string `json:"error"`
}
