package billing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	domainbilling "github.com/jhoicas/Cobranca-api/internal/domain/billing"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const reconcileBatchSize = 100

// ReconcileConfig parámetros del job de reconciliación.
type ReconcileConfig struct {
	StaleAfter  time.Duration // cobros sin cambios hace más que esto se consultan en el gateway
	Concurrency int
}

// ReconcileReport contadores de una corrida.
type ReconcileReport struct {
	AttemptsAdopted int64
	AttemptsFailed  int64
	Synced          int64
	Skipped         int64
	Errors          int64
}

// ReconcileUseCase resuelve emisiones con resultado desconocido y resincroniza cobros
// abiertos cuyo webhook pudo haberse perdido.
type ReconcileUseCase struct {
	invoices     repository.InvoiceRepository
	consolidated repository.ConsolidatedInvoiceRepository
	attempts     repository.ChargeAttemptRepository
	tx           BillingTxRunner
	gw           PaymentGateway
	applier      *StatusApplier
	effects      *Effects
	cfg          ReconcileConfig
	now          func() time.Time
	log          zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(
	invoices repository.InvoiceRepository,
	consolidated repository.ConsolidatedInvoiceRepository,
	attempts repository.ChargeAttemptRepository,
	tx BillingTxRunner,
	gw PaymentGateway,
	applier *StatusApplier,
	effects *Effects,
	cfg ReconcileConfig,
	log zerolog.Logger,
) *ReconcileUseCase {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &ReconcileUseCase{
		invoices:     invoices,
		consolidated: consolidated,
		attempts:     attempts,
		tx:           tx,
		gw:           gw,
		applier:      applier,
		effects:      effects,
		cfg:          cfg,
		now:          time.Now,
		log:          log,
	}
}

// Start corre RunOnce cada interval hasta que ctx se cancele. Bloqueante.
func (uc *ReconcileUseCase) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		uc.log.Warn().Msg("intervalo de reconciliación no positivo; worker deshabilitado")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	uc.log.Info().Dur("interval", interval).Msg("worker de reconciliación iniciado")
	for {
		select {
		case <-ctx.Done():
			uc.log.Info().Msg("worker de reconciliación detenido")
			return
		case <-ticker.C:
			if _, err := uc.RunOnce(ctx); err != nil {
				uc.log.Error().Err(err).Msg("ciclo de reconciliación con errores")
			}
		}
	}
}

type reconcileCounters struct {
	adopted, failed, synced, skipped, errors atomic.Int64
}

func (c *reconcileCounters) report() ReconcileReport {
	return ReconcileReport{
		AttemptsAdopted: c.adopted.Load(),
		AttemptsFailed:  c.failed.Load(),
		Synced:          c.synced.Load(),
		Skipped:         c.skipped.Load(),
		Errors:          c.errors.Load(),
	}
}

// RunOnce ejecuta un ciclo completo. Los fallos por ítem se registran y cuentan;
// solo los errores de lectura de lotes abortan la corrida.
func (uc *ReconcileUseCase) RunOnce(ctx context.Context) (ReconcileReport, error) {
	ctx = gateway.WithCredentialCache(ctx)
	var counters reconcileCounters

	attempts, err := uc.attempts.ListUnknown(ctx, reconcileBatchSize)
	if err != nil {
		return counters.report(), fmt.Errorf("listar intentos desconocidos: %w", err)
	}
	before := uc.now().Add(-uc.cfg.StaleAfter)
	invs, err := uc.invoices.ListOpenCharges(ctx, before, reconcileBatchSize)
	if err != nil {
		return counters.report(), fmt.Errorf("listar facturas abiertas: %w", err)
	}
	conss, err := uc.consolidated.ListOpenCharges(ctx, before, reconcileBatchSize)
	if err != nil {
		return counters.report(), fmt.Errorf("listar consolidados abiertos: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Concurrency)

	for _, a := range attempts {
		g.Go(func() error {
			uc.count(&counters, nil, uc.resolveAttempt(gctx, a, &counters), "attempt_id", a.ID)
			return nil
		})
	}
	for _, inv := range invs {
		g.Go(func() error {
			err := uc.syncCharge(gctx, inv.GatewayPaymentID, func(o domainbilling.Outcome, status, env string) error {
				return uc.applier.ApplyToInvoice(gctx, inv.ID, o, status, env)
			})
			uc.markSynced(gctx, uc.invoices.MarkSynced, "invoice_id", inv.ID)
			uc.count(&counters, &counters.synced, err, "invoice_id", inv.ID)
			return nil
		})
	}
	for _, c := range conss {
		g.Go(func() error {
			err := uc.syncCharge(gctx, c.GatewayPaymentID, func(o domainbilling.Outcome, status, env string) error {
				return uc.applier.ApplyToConsolidated(gctx, c.ID, o, status, env)
			})
			uc.markSynced(gctx, uc.consolidated.MarkSynced, "consolidated_id", c.ID)
			uc.count(&counters, &counters.synced, err, "consolidated_id", c.ID)
			return nil
		})
	}
	_ = g.Wait()

	rep := counters.report()
	uc.log.Info().
		Int64("adopted", rep.AttemptsAdopted).Int64("failed", rep.AttemptsFailed).
		Int64("synced", rep.Synced).Int64("skipped", rep.Skipped).Int64("errors", rep.Errors).
		Msg("ciclo de reconciliación completado")
	if rep.Errors > 0 {
		return rep, fmt.Errorf("reconciliación: %d ítems con error", rep.Errors)
	}
	return rep, nil
}

// count clasifica el resultado de un ítem; ok se incrementa en los éxitos (nil si el ítem se cuenta solo).
func (uc *ReconcileUseCase) count(c *reconcileCounters, ok *atomic.Int64, err error, key, id string) {
	var skip *domain.ReconciliationSkip
	switch {
	case err == nil:
		if ok != nil {
			ok.Add(1)
		}
	case errors.As(err, &skip):
		c.skipped.Add(1)
		uc.log.Debug().Str(key, id).Str("reason", skip.Reason).Msg("ítem sin cambios")
	default:
		c.errors.Add(1)
		uc.log.Warn().Err(err).Str(key, id).Msg("ítem no reconciliado; se reintenta en el próximo ciclo")
	}
}

// markSynced registra la consulta con cualquier resultado para que el lote siguiente avance
// sobre los cobros que no cambian de estado.
func (uc *ReconcileUseCase) markSynced(ctx context.Context, mark func(context.Context, string, time.Time) error, key, id string) {
	if err := mark(ctx, id, uc.now()); err != nil {
		uc.log.Warn().Err(err).Str(key, id).Msg("consulta no registrada; el cobro se repite en el próximo lote")
	}
}

// syncCharge consulta el estado real del cobro y lo pasa por la misma lógica del webhook.
func (uc *ReconcileUseCase) syncCharge(ctx context.Context, paymentID string, apply func(domainbilling.Outcome, string, string) error) error {
	p, err := uc.gw.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if p == nil || p.Deleted {
		uc.log.Warn().Str("payment_id", paymentID).Msg("cobro abierto localmente pero eliminado en el gateway")
		return &domain.ReconciliationSkip{Reason: "cobro eliminado upstream"}
	}
	outcome := domainbilling.OutcomeForGatewayStatus(p.Status)
	if outcome == domainbilling.OutcomeNone {
		return &domain.ReconciliationSkip{Reason: "estado " + p.Status + " sin cambios"}
	}
	env, err := uc.gw.ActiveEnvironment(ctx)
	if err != nil {
		return err
	}
	return apply(outcome, p.Status, env)
}

// resolveAttempt busca el cobro por externalReference: si existe se adopta, si no el intento falla
// y las facturas quedan libres para emitir de nuevo.
func (uc *ReconcileUseCase) resolveAttempt(ctx context.Context, a *entity.ChargeAttempt, counters *reconcileCounters) error {
	found, err := uc.gw.FindPaymentsByExternalReference(ctx, a.ExternalReference)
	if err != nil {
		return err
	}
	var payment *gateway.Payment
	for i := range found {
		if !found[i].Deleted && found[i].Status != domainbilling.GatewayStatusDeleted {
			payment = &found[i]
			break
		}
	}

	state := entity.AttemptStateFailed
	if payment != nil {
		adopted, err := uc.adopt(ctx, a, payment)
		if err != nil {
			return err
		}
		if adopted {
			state = entity.AttemptStateAdopted
		}
	}
	if err := uc.attempts.Resolve(ctx, a.ID, state, uc.now()); err != nil {
		return fmt.Errorf("resolver intento: %w", err)
	}
	if state == entity.AttemptStateAdopted {
		counters.adopted.Add(1)
	} else {
		counters.failed.Add(1)
	}
	uc.log.Info().Str("attempt_id", a.ID).Str("reference", a.ExternalReference).Str("state", state).Msg("intento de emisión resuelto")
	return nil
}

// adopt vincula el cobro encontrado. Si las facturas ya no admiten el vínculo el cobro
// se elimina upstream y el intento se da por fallido.
func (uc *ReconcileUseCase) adopt(ctx context.Context, a *entity.ChargeAttempt, p *gateway.Payment) (bool, error) {
	env, err := uc.gw.ActiveEnvironment(ctx)
	if err != nil {
		return false, err
	}
	ref := ChargeRef{Kind: a.Kind}
	switch a.Kind {
	case entity.ChargeKindInvoice:
		if len(a.InvoiceIDs) != 1 {
			return false, fmt.Errorf("intento %s: se esperaba una factura, hay %d", a.ID, len(a.InvoiceIDs))
		}
		ref.ID = a.InvoiceIDs[0]
		attached, err := uc.invoices.AttachCharge(ctx, ref.ID, repository.ChargeLink{
			GatewayPaymentID: p.ID,
			GatewayStatus:    p.Status,
			BoletoURL:        p.BoletoURL(),
		})
		if err != nil {
			return false, err
		}
		if !attached {
			return false, uc.discard(ctx, p.ID, a)
		}
	case entity.ChargeKindConsolidated:
		ref.ID = a.ConsolidatedID
		err := persistConsolidated(ctx, uc.tx, &entity.ConsolidatedInvoice{
			ID:               a.ConsolidatedID,
			SubscriberID:     a.SubscriberID,
			TotalValue:       a.Value,
			DueDate:          a.DueDate,
			Status:           entity.ConsolidatedStatusPending,
			GatewayPaymentID: p.ID,
			GatewayStatus:    p.Status,
			BoletoURL:        p.BoletoURL(),
			InvoiceIDs:       a.InvoiceIDs,
		})
		if errors.Is(err, domain.ErrConflict) {
			return false, uc.discard(ctx, p.ID, a)
		}
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("intento %s: tipo %q desconocido", a.ID, a.Kind)
	}

	uc.effects.ChargeIssued(ref, a.SubscriberID, a.Value, a.DueDate, p.BoletoURL(), env)
	if outcome := domainbilling.OutcomeForGatewayStatus(p.Status); outcome != domainbilling.OutcomeNone {
		var err error
		if a.Kind == entity.ChargeKindInvoice {
			err = uc.applier.ApplyToInvoice(ctx, ref.ID, outcome, p.Status, env)
		} else {
			err = uc.applier.ApplyToConsolidated(ctx, ref.ID, outcome, p.Status, env)
		}
		var skip *domain.ReconciliationSkip
		if err != nil && !errors.As(err, &skip) {
			uc.log.Warn().Err(err).Str("attempt_id", a.ID).Msg("cobro adoptado; estado se sincroniza en el próximo ciclo")
		}
	}
	return true, nil
}

func (uc *ReconcileUseCase) discard(ctx context.Context, paymentID string, a *entity.ChargeAttempt) error {
	if err := uc.gw.DeletePayment(ctx, paymentID); err != nil {
		return fmt.Errorf("eliminar cobro no adoptable %s: %w", paymentID, err)
	}
	uc.log.Warn().Str("attempt_id", a.ID).Str("payment_id", paymentID).Msg("cobro del intento no adoptable; eliminado upstream")
	return nil
}
