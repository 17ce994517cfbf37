package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	domainbilling "github.com/jhoicas/Cobranca-api/internal/domain/billing"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ChargeUpdate cambios sobre un cobro emitido. Campos nil no se tocan.
type ChargeUpdate struct {
	Value   *decimal.Decimal
	DueDate *time.Time
}

// ChargeMutatorUseCase actualiza y cancela cobros ya emitidos.
type ChargeMutatorUseCase struct {
	invoices     repository.InvoiceRepository
	consolidated repository.ConsolidatedInvoiceRepository
	tx           BillingTxRunner
	gw           PaymentGateway
	effects      *Effects
	now          func() time.Time
	log          zerolog.Logger
}

// NewChargeMutatorUseCase construye el caso de uso.
func NewChargeMutatorUseCase(
	invoices repository.InvoiceRepository,
	consolidated repository.ConsolidatedInvoiceRepository,
	tx BillingTxRunner,
	gw PaymentGateway,
	effects *Effects,
	log zerolog.Logger,
) *ChargeMutatorUseCase {
	return &ChargeMutatorUseCase{
		invoices:     invoices,
		consolidated: consolidated,
		tx:           tx,
		gw:           gw,
		effects:      effects,
		now:          time.Now,
		log:          log,
	}
}

// UpdateCharge cambia valor y/o vencimiento en el gateway y lo refleja localmente.
// Sin cobro en el gateway es un no-op exitoso. Un consolidado solo cambia su total
// cuando se informa el valor explícitamente.
func (uc *ChargeMutatorUseCase) UpdateCharge(ctx context.Context, ref ChargeRef, upd ChargeUpdate) error {
	if upd.Value == nil && upd.DueDate == nil {
		return domain.NewValidationError("", "informe value o due_date")
	}
	if upd.Value != nil && upd.Value.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("value", "debe ser mayor que cero")
	}

	switch ref.Kind {
	case entity.ChargeKindInvoice:
		inv, err := uc.invoices.GetByID(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("obtener factura: %w", err)
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Status == entity.InvoiceStatusCanceled {
			return fmt.Errorf("%w: la factura %s está cancelada", domain.ErrConflict, inv.ID)
		}
		if !inv.HasDirectCharge() {
			uc.log.Debug().Str("invoice_id", inv.ID).Msg("factura sin cobro en el gateway; nada que actualizar")
			return nil
		}
		if err := uc.pushChanges(ctx, inv.GatewayPaymentID, upd); err != nil {
			return err
		}
		if err := uc.invoices.UpdateChargeTerms(ctx, inv.ID, upd.Value, upd.DueDate); err != nil {
			return fmt.Errorf("reflejar cambios en la factura: %w", err)
		}
		value := inv.AmountDue
		if upd.Value != nil {
			value = *upd.Value
		}
		uc.effects.ChargeUpdated(ref, inv.SubscriberID, value)
		return nil

	case entity.ChargeKindConsolidated:
		c, err := uc.consolidated.GetByID(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("obtener consolidado: %w", err)
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.Status == entity.ConsolidatedStatusCanceled {
			return fmt.Errorf("%w: el consolidado %s está cancelado", domain.ErrConflict, c.ID)
		}
		if c.GatewayPaymentID == "" {
			return nil
		}
		if err := uc.pushChanges(ctx, c.GatewayPaymentID, upd); err != nil {
			return err
		}
		if err := uc.consolidated.UpdateChargeTerms(ctx, c.ID, upd.Value, upd.DueDate); err != nil {
			return fmt.Errorf("reflejar cambios en el consolidado: %w", err)
		}
		value := c.TotalValue
		if upd.Value != nil {
			value = *upd.Value
		}
		uc.effects.ChargeUpdated(ref, c.SubscriberID, value)
		return nil
	}
	return domain.NewValidationError("kind", "debe ser invoice o consolidated")
}

func (uc *ChargeMutatorUseCase) pushChanges(ctx context.Context, paymentID string, upd ChargeUpdate) error {
	changes := gateway.PaymentChanges{Value: upd.Value}
	if upd.DueDate != nil {
		changes.DueDate = upd.DueDate.Format(dateLayout)
	}
	if _, err := uc.gw.UpdatePayment(ctx, paymentID, changes); err != nil {
		return err
	}
	return nil
}

// CancelCharge elimina el cobro en el gateway (404 = ya eliminado) y lo marca cancelado.
// Repetir la cancelación es un éxito sin efectos.
func (uc *ChargeMutatorUseCase) CancelCharge(ctx context.Context, ref ChargeRef) error {
	switch ref.Kind {
	case entity.ChargeKindInvoice:
		return uc.cancelInvoice(ctx, ref)
	case entity.ChargeKindConsolidated:
		return uc.cancelConsolidated(ctx, ref)
	}
	return domain.NewValidationError("kind", "debe ser invoice o consolidated")
}

func (uc *ChargeMutatorUseCase) cancelInvoice(ctx context.Context, ref ChargeRef) error {
	inv, err := uc.invoices.GetByID(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if inv.Status == entity.InvoiceStatusCanceled {
		return nil
	}
	if inv.Status == entity.InvoiceStatusPaid {
		return fmt.Errorf("%w: la factura %s ya está paga", domain.ErrConflict, inv.ID)
	}

	if inv.HasDirectCharge() {
		if err := uc.gw.DeletePayment(ctx, inv.GatewayPaymentID); err != nil {
			return err
		}
	} else {
		cov, err := uc.invoices.Coverage(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("cobertura de la factura: %w", err)
		}
		if cov.Kind == entity.CoverageConsolidatedMember {
			return fmt.Errorf("%w: la factura %s está en el consolidado %s; cancele el consolidado", domain.ErrConflict, inv.ID, cov.ConsolidatedID)
		}
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		ok, err := uc.invoices.UpdateStatus(ctx, repository.StatusChange{
			ID:              inv.ID,
			ExpectedVersion: inv.StatusVersion,
			Status:          entity.InvoiceStatusCanceled,
			GatewayStatus:   deletedStatus(inv.GatewayPaymentID),
			ChangedAt:       uc.now(),
		})
		if err != nil {
			return fmt.Errorf("cancelar factura: %w", err)
		}
		if ok {
			uc.log.Info().Str("invoice_id", inv.ID).Str("payment_id", inv.GatewayPaymentID).Msg("cobro de factura cancelado")
			uc.effects.ChargeCanceled(ref, inv.SubscriberID)
			return nil
		}
		if inv, err = uc.invoices.GetByID(ctx, ref.ID); err != nil {
			return fmt.Errorf("releer factura: %w", err)
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Status == entity.InvoiceStatusCanceled {
			return nil
		}
		if inv.Status == entity.InvoiceStatusPaid {
			return fmt.Errorf("%w: la factura %s se pagó durante la cancelación", domain.ErrConflict, inv.ID)
		}
	}
	return fmt.Errorf("%w: la factura %s cambió durante la cancelación", domain.ErrConflict, ref.ID)
}

// cancelConsolidated además libera los ítems: los miembros vuelven a quedar sin cobro.
func (uc *ChargeMutatorUseCase) cancelConsolidated(ctx context.Context, ref ChargeRef) error {
	c, err := uc.consolidated.GetByID(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("obtener consolidado: %w", err)
	}
	if c == nil {
		return domain.ErrNotFound
	}
	if c.Status == entity.ConsolidatedStatusCanceled {
		return nil
	}
	if c.Status == entity.ConsolidatedStatusPaid {
		return fmt.Errorf("%w: el consolidado %s ya está pago", domain.ErrConflict, c.ID)
	}
	if c.GatewayPaymentID != "" {
		if err := uc.gw.DeletePayment(ctx, c.GatewayPaymentID); err != nil {
			return err
		}
	}
	err = uc.tx.RunBilling(ctx, func(_ repository.InvoiceRepository, consolidated repository.ConsolidatedInvoiceRepository) error {
		return consolidated.Deactivate(ctx, c.ID, deletedStatus(c.GatewayPaymentID), uc.now())
	})
	if err != nil {
		return fmt.Errorf("desactivar consolidado: %w", err)
	}
	uc.log.Info().Str("consolidated_id", c.ID).Str("payment_id", c.GatewayPaymentID).Msg("cobro consolidado cancelado")
	uc.effects.ChargeCanceled(ref, c.SubscriberID)
	return nil
}

func deletedStatus(paymentID string) string {
	if paymentID == "" {
		return ""
	}
	return domainbilling.GatewayStatusDeleted
}
