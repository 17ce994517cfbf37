package billing

import "github.com/jhoicas/Cobranca-api/internal/domain/entity"

// Eventos del webhook del gateway.
const (
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
)

// Estados crudos del cobro en el gateway (GET /payments/{id}).
const (
	GatewayStatusPending   = "PENDING"
	GatewayStatusConfirmed = "CONFIRMED"
	GatewayStatusReceived  = "RECEIVED"
	GatewayStatusOverdue   = "OVERDUE"
	GatewayStatusDeleted   = "DELETED"
)

// Outcome resultado normalizado de un evento o estado del gateway.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomePaid    Outcome = "paid"
	OutcomeOverdue Outcome = "overdue"
)

// OutcomeForEvent mapea el nombre del evento. Cualquier otro evento no produce cambios.
func OutcomeForEvent(event string) Outcome {
	switch event {
	case EventPaymentConfirmed, EventPaymentReceived:
		return OutcomePaid
	case EventPaymentOverdue:
		return OutcomeOverdue
	}
	return OutcomeNone
}

// OutcomeForGatewayStatus mapea el estado consultado en la reconciliación periódica.
func OutcomeForGatewayStatus(status string) Outcome {
	switch status {
	case GatewayStatusConfirmed, GatewayStatusReceived, "RECEIVED_IN_CASH":
		return OutcomePaid
	case GatewayStatusOverdue:
		return OutcomeOverdue
	}
	return OutcomeNone
}

// GatewayStatusFor estado crudo que se refleja localmente para un evento.
func GatewayStatusFor(outcome Outcome, event string) string {
	switch {
	case event == EventPaymentConfirmed:
		return GatewayStatusConfirmed
	case outcome == OutcomePaid:
		return GatewayStatusReceived
	case outcome == OutcomeOverdue:
		return GatewayStatusOverdue
	}
	return ""
}

// InvoiceTarget estado local destino de una factura.
func InvoiceTarget(o Outcome) string {
	switch o {
	case OutcomePaid:
		return entity.InvoiceStatusPaid
	case OutcomeOverdue:
		return entity.InvoiceStatusOverdue
	}
	return ""
}

// ConsolidatedTarget estado local destino de un consolidado; vencido sigue pending.
func ConsolidatedTarget(o Outcome) string {
	switch o {
	case OutcomePaid:
		return entity.ConsolidatedStatusPaid
	case OutcomeOverdue:
		return entity.ConsolidatedStatusPending
	}
	return ""
}

// CanTransitionInvoice decide si from → to se aplica.
// Cancelado es terminal. En modo estricto pago no vuelve a atrasado.
func CanTransitionInvoice(from, to string, strict bool) bool {
	if to == "" || from == entity.InvoiceStatusCanceled {
		return false
	}
	if strict && from == entity.InvoiceStatusPaid && to != entity.InvoiceStatusPaid {
		return false
	}
	return true
}

// CanTransitionConsolidated mismas reglas sobre los estados del consolidado.
func CanTransitionConsolidated(from, to string, strict bool) bool {
	if to == "" || from == entity.ConsolidatedStatusCanceled {
		return false
	}
	if strict && from == entity.ConsolidatedStatusPaid && to != entity.ConsolidatedStatusPaid {
		return false
	}
	return true
}

// ExternalReferenceForInvoice referencia enviada al gateway en cobros individuales.
func ExternalReferenceForInvoice(invoiceID string) string { return "inv:" + invoiceID }

// ExternalReferenceForConsolidated referencia enviada al gateway en cobros consolidados.
func ExternalReferenceForConsolidated(consolidatedID string) string { return "cons:" + consolidatedID }
