package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	domainbilling "github.com/jhoicas/Cobranca-api/internal/domain/billing"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/lock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Lease por suscriptor: la emisión individual y la consolidada se serializan por suscriptor.
const (
	leaseTTL  = 2 * time.Minute
	leaseWait = 15 * time.Second
)

// IssueResult resultado de una emisión.
type IssueResult struct {
	GatewayChargeID       string
	BoletoURL             string
	ConsolidatedInvoiceID string
	Value                 decimal.Decimal
	DueDate               time.Time
}

// ChargeIssuerUseCase emite cobros individuales y consolidados.
type ChargeIssuerUseCase struct {
	invoices    repository.InvoiceRepository
	subscribers repository.SubscriberRepository
	attempts    repository.ChargeAttemptRepository
	tx          BillingTxRunner
	customers   *CustomerSyncUseCase
	gw          PaymentGateway
	locker      lock.Locker
	effects     *Effects
	now         func() time.Time
	log         zerolog.Logger
}

// NewChargeIssuerUseCase construye el caso de uso.
func NewChargeIssuerUseCase(
	invoices repository.InvoiceRepository,
	subscribers repository.SubscriberRepository,
	attempts repository.ChargeAttemptRepository,
	tx BillingTxRunner,
	customers *CustomerSyncUseCase,
	gw PaymentGateway,
	locker lock.Locker,
	effects *Effects,
	log zerolog.Logger,
) *ChargeIssuerUseCase {
	return &ChargeIssuerUseCase{
		invoices:    invoices,
		subscribers: subscribers,
		attempts:    attempts,
		tx:          tx,
		customers:   customers,
		gw:          gw,
		locker:      locker,
		effects:     effects,
		now:         time.Now,
		log:         log,
	}
}

// IssueIndividual emite el cobro de una factura a_vencer sin cobertura.
// subscriberID vacío omite la verificación de pertenencia. dueDate nil usa el vencimiento de la factura.
func (uc *ChargeIssuerUseCase) IssueIndividual(ctx context.Context, subscriberID, invoiceID string, dueDate *time.Time) (*IssueResult, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if subscriberID != "" && inv.SubscriberID != subscriberID {
		return nil, domain.NewValidationError("subscriber_id", fmt.Sprintf("la factura %s no pertenece al suscriptor", inv.ID))
	}

	release, err := uc.locker.Acquire(ctx, "subscriber:"+inv.SubscriberID, leaseTTL, leaseWait)
	if err != nil {
		return nil, err
	}
	defer release()

	// Releer bajo el lease.
	if inv, err = uc.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, fmt.Errorf("releer factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.Status != entity.InvoiceStatusPending {
		return nil, fmt.Errorf("%w: factura %s en estado %s", domain.ErrConflict, inv.ID, inv.Status)
	}
	if err := uc.ensureUncharged(ctx, inv.ID); err != nil {
		return nil, err
	}
	if err := uc.ensureNoUnknownAttempt(ctx, []string{inv.ID}); err != nil {
		return nil, err
	}
	if inv.AmountDue.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("amount_due", "la factura no tiene valor a cobrar")
	}

	customerID, err := uc.resolveCustomer(ctx, inv.SubscriberID)
	if err != nil {
		return nil, err
	}

	due := inv.DueDate
	if dueDate != nil {
		due = *dueDate
	}
	env := uc.environment(ctx)
	ref := domainbilling.ExternalReferenceForInvoice(inv.ID)

	payment, err := uc.gw.CreatePayment(ctx, gateway.NewPayment{
		Customer:          customerID,
		Value:             inv.AmountDue,
		DueDate:           due.Format(dateLayout),
		Description:       "Fatura de energia " + inv.Period,
		ExternalReference: ref,
	})
	if err != nil {
		uc.recordUnknown(ctx, err, &entity.ChargeAttempt{
			Kind:              entity.ChargeKindInvoice,
			SubscriberID:      inv.SubscriberID,
			InvoiceIDs:        []string{inv.ID},
			Value:             inv.AmountDue,
			DueDate:           due,
			ExternalReference: ref,
		})
		return nil, err
	}

	attached, err := uc.invoices.AttachCharge(ctx, inv.ID, repository.ChargeLink{
		GatewayPaymentID: payment.ID,
		GatewayStatus:    payment.Status,
		BoletoURL:        payment.BoletoURL(),
	})
	if err != nil || !attached {
		uc.compensate(ctx, payment.ID, "vincular cobro individual")
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: la factura %s ya fue vinculada a otro cobro", domain.ErrConflict, inv.ID)
	}

	uc.log.Info().Str("invoice_id", inv.ID).Str("payment_id", payment.ID).Str("env", env).Msg("cobro individual emitido")
	uc.effects.ChargeIssued(ChargeRef{Kind: entity.ChargeKindInvoice, ID: inv.ID}, inv.SubscriberID, inv.AmountDue, due, payment.BoletoURL(), env)

	return &IssueResult{
		GatewayChargeID: payment.ID,
		BoletoURL:       payment.BoletoURL(),
		Value:           inv.AmountDue,
		DueDate:         due,
	}, nil
}

// IssueConsolidated emite un único cobro por la suma de las facturas indicadas.
// El total queda congelado al emitir. dueDate nil aplica NextConsolidatedDueDate.
func (uc *ChargeIssuerUseCase) IssueConsolidated(ctx context.Context, subscriberID string, invoiceIDs []string, dueDate *time.Time) (*IssueResult, error) {
	ids := lo.Uniq(lo.Compact(invoiceIDs))
	if len(ids) == 0 {
		return nil, domain.NewValidationError("invoice_ids", "informe al menos una factura")
	}
	sub, err := uc.subscribers.GetByID(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("obtener suscriptor: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}

	release, err := uc.locker.Acquire(ctx, "subscriber:"+subscriberID, leaseTTL, leaseWait)
	if err != nil {
		return nil, err
	}
	defer release()

	invs, err := uc.invoices.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("obtener facturas: %w", err)
	}
	if missing := lo.Without(ids, lo.Map(invs, func(i *entity.Invoice, _ int) string { return i.ID })...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: facturas %v", domain.ErrNotFound, missing)
	}
	for _, inv := range invs {
		if inv.SubscriberID != subscriberID {
			return nil, domain.NewValidationError("invoice_ids", fmt.Sprintf("la factura %s no pertenece al suscriptor", inv.ID))
		}
		if inv.Status == entity.InvoiceStatusCanceled {
			return nil, domain.NewValidationError("invoice_ids", fmt.Sprintf("la factura %s está cancelada", inv.ID))
		}
		if err := uc.ensureUncharged(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	if err := uc.ensureNoUnknownAttempt(ctx, ids); err != nil {
		return nil, err
	}

	total := lo.Reduce(invs, func(acc decimal.Decimal, inv *entity.Invoice, _ int) decimal.Decimal {
		return acc.Add(inv.AmountDue)
	}, decimal.Zero)
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("invoice_ids", "el total a cobrar debe ser mayor que cero")
	}

	due := domainbilling.NextConsolidatedDueDate(sub.ConsolidatedDueDay, uc.now())
	if dueDate != nil {
		due = *dueDate
	}

	customerID, err := uc.resolveCustomer(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	env := uc.environment(ctx)
	consolidatedID := uuid.New().String()
	ref := domainbilling.ExternalReferenceForConsolidated(consolidatedID)

	payment, err := uc.gw.CreatePayment(ctx, gateway.NewPayment{
		Customer:          customerID,
		Value:             total,
		DueDate:           due.Format(dateLayout),
		Description:       fmt.Sprintf("Fatura consolidada (%d unidades)", len(invs)),
		ExternalReference: ref,
	})
	if err != nil {
		uc.recordUnknown(ctx, err, &entity.ChargeAttempt{
			Kind:              entity.ChargeKindConsolidated,
			SubscriberID:      subscriberID,
			ConsolidatedID:    consolidatedID,
			InvoiceIDs:        ids,
			Value:             total,
			DueDate:           due,
			ExternalReference: ref,
		})
		return nil, err
	}

	consolidated := &entity.ConsolidatedInvoice{
		ID:               consolidatedID,
		SubscriberID:     subscriberID,
		TotalValue:       total,
		DueDate:          due,
		Status:           entity.ConsolidatedStatusPending,
		GatewayPaymentID: payment.ID,
		GatewayStatus:    payment.Status,
		BoletoURL:        payment.BoletoURL(),
		InvoiceIDs:       ids,
	}
	if err := persistConsolidated(ctx, uc.tx, consolidated); err != nil {
		uc.compensate(ctx, payment.ID, "persistir consolidado")
		return nil, err
	}

	uc.log.Info().Str("consolidated_id", consolidatedID).Str("payment_id", payment.ID).
		Str("total", total.StringFixed(2)).Int("invoices", len(ids)).Msg("cobro consolidado emitido")
	uc.effects.ChargeIssued(ChargeRef{Kind: entity.ChargeKindConsolidated, ID: consolidatedID}, subscriberID, total, due, payment.BoletoURL(), env)

	return &IssueResult{
		GatewayChargeID:       payment.ID,
		BoletoURL:             payment.BoletoURL(),
		ConsolidatedInvoiceID: consolidatedID,
		Value:                 total,
		DueDate:               due,
	}, nil
}

// persistConsolidated inserta cabecera e ítems en una tx, verificando que ningún miembro
// haya recibido un cobro propio mientras se hablaba con el gateway.
func persistConsolidated(ctx context.Context, tx BillingTxRunner, c *entity.ConsolidatedInvoice) error {
	return tx.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, consolidatedRepo repository.ConsolidatedInvoiceRepository) error {
		for _, id := range c.InvoiceIDs {
			cov, err := invoiceRepo.Coverage(ctx, id)
			if err != nil {
				return err
			}
			if cov.IsCharged() {
				return fmt.Errorf("%w: la factura %s ya tiene cobro", domain.ErrConflict, id)
			}
		}
		return consolidatedRepo.Create(ctx, c)
	})
}

func (uc *ChargeIssuerUseCase) ensureUncharged(ctx context.Context, invoiceID string) error {
	cov, err := uc.invoices.Coverage(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("cobertura de la factura: %w", err)
	}
	switch cov.Kind {
	case entity.CoverageDirectCharge:
		return fmt.Errorf("%w: la factura %s ya tiene cobro %s", domain.ErrConflict, invoiceID, cov.GatewayPaymentID)
	case entity.CoverageConsolidatedMember:
		return fmt.Errorf("%w: la factura %s ya está en el consolidado %s", domain.ErrConflict, invoiceID, cov.ConsolidatedID)
	}
	return nil
}

func (uc *ChargeIssuerUseCase) ensureNoUnknownAttempt(ctx context.Context, invoiceIDs []string) error {
	pending, err := uc.attempts.HasUnknownForInvoices(ctx, invoiceIDs)
	if err != nil {
		return err
	}
	if pending {
		return fmt.Errorf("%w: hay una emisión con resultado desconocido para estas facturas; espere la reconciliación", domain.ErrConflict)
	}
	return nil
}

// resolveCustomer tolera el fallo de actualización de perfil si hay un id conocido.
func (uc *ChargeIssuerUseCase) resolveCustomer(ctx context.Context, subscriberID string) (string, error) {
	customerID, err := uc.customers.ResolveCustomer(ctx, subscriberID)
	if customerID == "" {
		if err == nil {
			err = &domain.GatewayError{Op: "resolve customer", Description: "el gateway no devolvió id de cliente"}
		}
		return "", err
	}
	if err != nil {
		uc.log.Warn().Err(err).Str("subscriber_id", subscriberID).Msg("emitiendo con el id de cliente conocido")
	}
	return customerID, nil
}

func (uc *ChargeIssuerUseCase) environment(ctx context.Context) string {
	env, err := uc.gw.ActiveEnvironment(ctx)
	if err != nil {
		return entity.EnvironmentSandbox
	}
	return env
}

// recordUnknown registra el intento solo si el estado remoto es desconocido (timeout o red).
func (uc *ChargeIssuerUseCase) recordUnknown(ctx context.Context, err error, attempt *entity.ChargeAttempt) {
	gwErr, ok := domain.AsGatewayError(err)
	if !ok || !gwErr.UnknownState() {
		return
	}
	attempt.State = entity.AttemptStateUnknown
	if rerr := uc.attempts.Create(context.WithoutCancel(ctx), attempt); rerr != nil {
		uc.log.Error().Err(rerr).Str("reference", attempt.ExternalReference).Msg("no se pudo registrar el intento de emisión")
		return
	}
	uc.log.Warn().Str("reference", attempt.ExternalReference).Strs("invoices", attempt.InvoiceIDs).
		Msg("emisión con resultado desconocido; queda para reconciliación")
}

// compensate elimina upstream un cobro que no se pudo registrar localmente.
func (uc *ChargeIssuerUseCase) compensate(ctx context.Context, paymentID, step string) {
	if err := uc.gw.DeletePayment(context.WithoutCancel(ctx), paymentID); err != nil {
		uc.log.Error().Err(err).Str("payment_id", paymentID).Str("step", step).
			Msg("cobro huérfano en el gateway: falló la compensación")
		return
	}
	uc.log.Warn().Str("payment_id", paymentID).Str("step", step).Msg("cobro eliminado en el gateway por compensación")
}
