package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	domainbilling "github.com/jhoicas/Cobranca-api/internal/domain/billing"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

const maxCASAttempts = 3

// errVersionMoved otro escritor cambió la fila entre la lectura y el CAS.
var errVersionMoved = errors.New("status_version cambió")

// StatusApplier aplica un resultado del gateway (pagado / vencido) sobre facturas y consolidados.
// Lo comparten el webhook y la reconciliación periódica.
type StatusApplier struct {
	tx      BillingTxRunner
	effects *Effects
	strict  bool
	now     func() time.Time
	log     zerolog.Logger
}

// NewStatusApplier strict=true rechaza pago → atrasado; false deja ganar al último evento.
func NewStatusApplier(tx BillingTxRunner, effects *Effects, strict bool, log zerolog.Logger) *StatusApplier {
	return &StatusApplier{tx: tx, effects: effects, strict: strict, now: time.Now, log: log}
}

// ApplyToInvoice lleva la factura al estado que corresponde al resultado.
// Repetir el mismo resultado no produce cambios ni efectos.
func (a *StatusApplier) ApplyToInvoice(ctx context.Context, invoiceID string, outcome domainbilling.Outcome, gatewayStatus, env string) error {
	target := domainbilling.InvoiceTarget(outcome)
	if target == "" {
		return &domain.ReconciliationSkip{Reason: "resultado sin estado destino"}
	}

	var fire []func()
	err := a.withCAS(ctx, func(invoices repository.InvoiceRepository, _ repository.ConsolidatedInvoiceRepository) error {
		fire = nil
		inv, err := invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return &domain.ReconciliationSkip{Reason: "factura " + invoiceID + " no existe"}
		}
		if inv.Status == target {
			return nil
		}
		if !domainbilling.CanTransitionInvoice(inv.Status, target, a.strict) {
			return &domain.ReconciliationSkip{Reason: fmt.Sprintf("factura %s: transición %s → %s rechazada", inv.ID, inv.Status, target)}
		}
		if err := a.casInvoice(ctx, invoices, inv, target, gatewayStatus); err != nil {
			return err
		}
		ref := ChargeRef{Kind: entity.ChargeKindInvoice, ID: inv.ID}
		subscriberID, amount := inv.SubscriberID, inv.AmountDue
		switch outcome {
		case domainbilling.OutcomePaid:
			fire = append(fire, func() { a.effects.Paid(ref, subscriberID, amount, env, true) })
		case domainbilling.OutcomeOverdue:
			fire = append(fire, func() { a.effects.Overdue(ref, subscriberID, amount, true) })
		}
		a.log.Info().Str("invoice_id", inv.ID).Str("from", inv.Status).Str("to", target).Msg("estado de factura actualizado")
		return nil
	})
	if err != nil {
		return err
	}
	for _, f := range fire {
		f()
	}
	return nil
}

// ApplyToConsolidated aplica el resultado al consolidado y lo propaga a sus miembros activos.
// Pagado: miembros que no estén pago/cancelado pasan a pago (sin asiento propio).
// Vencido: el consolidado sigue pending con el estado OVERDUE reflejado; miembros a_vencer → atrasado.
func (a *StatusApplier) ApplyToConsolidated(ctx context.Context, consolidatedID string, outcome domainbilling.Outcome, gatewayStatus, env string) error {
	target := domainbilling.ConsolidatedTarget(outcome)
	if target == "" {
		return &domain.ReconciliationSkip{Reason: "resultado sin estado destino"}
	}

	var fire []func()
	err := a.withCAS(ctx, func(invoices repository.InvoiceRepository, consolidated repository.ConsolidatedInvoiceRepository) error {
		fire = nil
		c, err := consolidated.GetByID(ctx, consolidatedID)
		if err != nil {
			return err
		}
		if c == nil {
			return &domain.ReconciliationSkip{Reason: "consolidado " + consolidatedID + " no existe"}
		}
		if c.Status == target && c.GatewayStatus == gatewayStatus {
			return nil
		}
		if c.Status == target && outcome == domainbilling.OutcomePaid {
			return nil
		}
		if !domainbilling.CanTransitionConsolidated(c.Status, target, a.strict) {
			return &domain.ReconciliationSkip{Reason: fmt.Sprintf("consolidado %s: transición %s → %s rechazada", c.ID, c.Status, target)}
		}
		ok, err := consolidated.UpdateStatus(ctx, repository.StatusChange{
			ID:              c.ID,
			ExpectedVersion: c.StatusVersion,
			Status:          target,
			GatewayStatus:   gatewayStatus,
			ChangedAt:       a.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errVersionMoved
		}

		members, err := invoices.ListByConsolidated(ctx, c.ID)
		if err != nil {
			return err
		}
		ref := ChargeRef{Kind: entity.ChargeKindConsolidated, ID: c.ID}
		subscriberID, total := c.SubscriberID, c.TotalValue
		switch outcome {
		case domainbilling.OutcomePaid:
			fire = append(fire, func() { a.effects.Paid(ref, subscriberID, total, env, true) })
			for _, m := range members {
				if m.Status == entity.InvoiceStatusPaid || m.Status == entity.InvoiceStatusCanceled {
					continue
				}
				if err := a.casInvoice(ctx, invoices, m, entity.InvoiceStatusPaid, gatewayStatus); err != nil {
					return err
				}
				mref, mamount := ChargeRef{Kind: entity.ChargeKindInvoice, ID: m.ID}, m.AmountDue
				fire = append(fire, func() { a.effects.Paid(mref, subscriberID, mamount, env, false) })
			}
		case domainbilling.OutcomeOverdue:
			fire = append(fire, func() { a.effects.Overdue(ref, subscriberID, total, true) })
			for _, m := range members {
				if m.Status != entity.InvoiceStatusPending {
					continue
				}
				if err := a.casInvoice(ctx, invoices, m, entity.InvoiceStatusOverdue, gatewayStatus); err != nil {
					return err
				}
				mref, mamount := ChargeRef{Kind: entity.ChargeKindInvoice, ID: m.ID}, m.AmountDue
				fire = append(fire, func() { a.effects.Overdue(mref, subscriberID, mamount, false) })
			}
		}
		a.log.Info().Str("consolidated_id", c.ID).Str("from", c.Status).Str("to", target).
			Int("members", len(members)).Msg("estado de consolidado actualizado")
		return nil
	})
	if err != nil {
		return err
	}
	for _, f := range fire {
		f()
	}
	return nil
}

// withCAS reintenta la transacción completa si alguna escritura CAS perdió la carrera.
func (a *StatusApplier) withCAS(ctx context.Context, fn func(repository.InvoiceRepository, repository.ConsolidatedInvoiceRepository) error) error {
	var err error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		err = a.tx.RunBilling(ctx, fn)
		if !errors.Is(err, errVersionMoved) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrConflict, err)
}

func (a *StatusApplier) casInvoice(ctx context.Context, invoices repository.InvoiceRepository, inv *entity.Invoice, status, gatewayStatus string) error {
	ok, err := invoices.UpdateStatus(ctx, repository.StatusChange{
		ID:              inv.ID,
		ExpectedVersion: inv.StatusVersion,
		Status:          status,
		GatewayStatus:   gatewayStatus,
		ChangedAt:       a.now(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return errVersionMoved
	}
	return nil
}
