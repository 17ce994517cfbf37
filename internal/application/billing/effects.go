package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/application/ports"
	"github.com/jhoicas/Cobranca-api/internal/application/sideeffect"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/pkg/money"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Effects encola los efectos secundarios de las transiciones de cobro.
// Ninguno deshace la operación que los dispara: fallan, se reintentan y se registran.
type Effects struct {
	queue       sideeffect.Enqueuer
	subscribers repository.SubscriberRepository
	ledger      repository.LedgerRepository
	commission  CommissionPoster
	notifier    ports.Notifier
	events      ports.EventPublisher
	log         zerolog.Logger
}

// NewEffects construye el despachador de efectos. commission puede ser nil.
func NewEffects(
	queue sideeffect.Enqueuer,
	subscribers repository.SubscriberRepository,
	ledger repository.LedgerRepository,
	commission CommissionPoster,
	notifier ports.Notifier,
	events ports.EventPublisher,
	log zerolog.Logger,
) *Effects {
	return &Effects{
		queue:       queue,
		subscribers: subscribers,
		ledger:      ledger,
		commission:  commission,
		notifier:    notifier,
		events:      events,
		log:         log,
	}
}

// ChargeRef referencia a un cobro local.
type ChargeRef struct {
	Kind string // entity.ChargeKindInvoice | entity.ChargeKindConsolidated
	ID   string
}

func (r ChargeRef) refType() string {
	if r.Kind == entity.ChargeKindConsolidated {
		return entity.LedgerRefConsolidated
	}
	return entity.LedgerRefInvoice
}

// ChargeIssued notifica al suscriptor y publica el evento de emisión.
func (e *Effects) ChargeIssued(ref ChargeRef, subscriberID string, value decimal.Decimal, dueDate time.Time, boletoURL, env string) {
	e.publish(ports.BillingEvent{
		Type: ports.EventChargeIssued, ReferenceType: ref.refType(), ReferenceID: ref.ID,
		SubscriberID: subscriberID, Amount: value, Environment: env,
	})
	text := fmt.Sprintf("Sua fatura de %s vence em %s.", money.FormatBRL(value), dueDate.Format("02/01/2006"))
	if boletoURL != "" {
		text += " Boleto: " + boletoURL
	}
	e.notify(subscriberID, ports.NotificationChargeIssued, ref.ID, text)
}

// ChargeUpdated publica el cambio de términos.
func (e *Effects) ChargeUpdated(ref ChargeRef, subscriberID string, value decimal.Decimal) {
	e.publish(ports.BillingEvent{
		Type: ports.EventChargeUpdated, ReferenceType: ref.refType(), ReferenceID: ref.ID,
		SubscriberID: subscriberID, Amount: value,
	})
}

// ChargeCanceled publica la cancelación.
func (e *Effects) ChargeCanceled(ref ChargeRef, subscriberID string) {
	e.publish(ports.BillingEvent{
		Type: ports.EventChargeCanceled, ReferenceType: ref.refType(), ReferenceID: ref.ID,
		SubscriberID: subscriberID, Status: "canceled",
	})
}

// Paid registra el ingreso en el libro (crédito), dispara la comisión recurrente,
// notifica y publica. Con withLedger=false (miembro de un consolidado) no hay asiento
// ni notificación: el ingreso ya se registró contra el consolidado.
func (e *Effects) Paid(ref ChargeRef, subscriberID string, amount decimal.Decimal, env string, withLedger bool) {
	if withLedger {
		kind := entity.LedgerKindPaymentReceived
		if ref.Kind == entity.ChargeKindConsolidated {
			kind = entity.LedgerKindConsolidatedPaid
		}
		entry := entity.LedgerEntry{
			Amount:         amount.Neg(),
			Kind:           kind,
			ReferenceType:  ref.refType(),
			ReferenceID:    ref.ID,
			SubscriberID:   subscriberID,
			Environment:    env,
			Description:    "Pagamento recebido",
			IdempotencyKey: fmt.Sprintf("%s:%s:%s", kind, ref.refType(), ref.ID),
		}
		e.queue.Enqueue(sideeffect.Task{Name: "ledger.payment", Key: entry.IdempotencyKey, Run: func(ctx context.Context) error {
			row := entry
			_, err := e.ledger.Append(ctx, &row)
			return err
		}})
		e.notify(subscriberID, ports.NotificationPaymentPaid, ref.ID,
			fmt.Sprintf("Recebemos seu pagamento de %s. Obrigado!", money.FormatBRL(amount)))
	}
	if ref.Kind == entity.ChargeKindInvoice && e.commission != nil {
		invoiceID := ref.ID
		e.queue.Enqueue(sideeffect.Task{Name: "commission.recurring", Key: "commission:invoice:" + invoiceID, Run: func(ctx context.Context) error {
			return e.commission.OnInvoicePaid(ctx, invoiceID)
		}})
	}
	e.publish(ports.BillingEvent{
		Type: ports.EventStatusChanged, ReferenceType: ref.refType(), ReferenceID: ref.ID,
		SubscriberID: subscriberID, Status: "paid", Amount: amount, Environment: env,
	})
}

// Overdue avisa del vencimiento y publica el cambio de estado.
func (e *Effects) Overdue(ref ChargeRef, subscriberID string, amount decimal.Decimal, notify bool) {
	if notify {
		e.notify(subscriberID, ports.NotificationOverdue, ref.ID,
			fmt.Sprintf("Sua fatura de %s está vencida. Regularize para evitar encargos.", money.FormatBRL(amount)))
	}
	e.publish(ports.BillingEvent{
		Type: ports.EventStatusChanged, ReferenceType: ref.refType(), ReferenceID: ref.ID,
		SubscriberID: subscriberID, Status: "overdue", Amount: amount,
	})
}

// Activated dispara la comisión de activación.
func (e *Effects) Activated(subscriberID string) {
	if e.commission == nil {
		return
	}
	e.queue.Enqueue(sideeffect.Task{Name: "commission.activation", Key: "commission:subscriber:" + subscriberID, Run: func(ctx context.Context) error {
		return e.commission.OnActivation(ctx, subscriberID)
	}})
}

func (e *Effects) publish(ev ports.BillingEvent) {
	if e.events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC()
	e.queue.Enqueue(sideeffect.Task{Name: "event." + ev.Type, Key: ev.ReferenceID, Run: func(ctx context.Context) error {
		return e.events.Publish(ctx, ev)
	}})
}

// notify resuelve el teléfono del suscriptor al ejecutar la tarea; sin teléfono no hay aviso.
func (e *Effects) notify(subscriberID, kind, reference, text string) {
	if e.notifier == nil {
		return
	}
	e.queue.Enqueue(sideeffect.Task{Name: "notify." + kind, Key: reference, Run: func(ctx context.Context) error {
		sub, err := e.subscribers.GetByID(ctx, subscriberID)
		if err != nil {
			return err
		}
		if sub == nil || sub.Phone == "" {
			e.log.Debug().Str("subscriber_id", subscriberID).Str("kind", kind).Msg("suscriptor sin teléfono; aviso omitido")
			return nil
		}
		return e.notifier.Notify(ctx, ports.Notification{
			Recipient: sub.Phone,
			Text:      text,
			Kind:      kind,
			Reference: reference,
		})
	}})
}
