package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Notification mensaje saliente para el canal de notificaciones (WhatsApp, e-mail).
// El motor solo publica; la entrega es de un servicio externo.
type Notification struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
}

// Tipos de notificación.
const (
	NotificationChargeIssued = "charge_issued"
	NotificationPaymentPaid  = "payment_paid"
	NotificationOverdue      = "payment_overdue"
)

// Notifier define el puerto de salida para publicar notificaciones.
// Las implementaciones deben respetar el ctx: se ejecutan desde el dispatcher con reintentos.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// BillingEvent evento de dominio de facturación para consumidores externos (BI, conciliación contable).
type BillingEvent struct {
	Type          string          `json:"type"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	SubscriberID  string          `json:"subscriber_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Environment   string          `json:"environment,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Tipos de evento.
const (
	EventChargeIssued   = "charge.issued"
	EventChargeUpdated  = "charge.updated"
	EventChargeCanceled = "charge.canceled"
	EventStatusChanged  = "charge.status_changed"
	EventCommission     = "commission.posted"
)

// EventPublisher define el puerto de salida para eventos de facturación.
// La clave de partición es ReferenceID.
type EventPublisher interface {
	Publish(ctx context.Context, e BillingEvent) error
}
