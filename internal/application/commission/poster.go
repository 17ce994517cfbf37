// Package commission registra en el libro las comisiones de los consultores y ejecuta sus pagos.
package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Cobranca-api/internal/application/sideeffect"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	calc "github.com/jhoicas/Cobranca-api/internal/domain/commission"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Gateway subconjunto del cliente del gateway que usan las comisiones.
type Gateway interface {
	ActiveEnvironment(ctx context.Context) (string, error)
	CreateTransfer(ctx context.Context, in gateway.NewTransfer) (*gateway.Transfer, error)
}

var _ Gateway = (*gateway.Client)(nil)

// LedgerPoster calcula y asienta comisiones. Cada asiento lleva una llave de idempotencia:
// reejecutar un disparo no duplica la comisión.
type LedgerPoster struct {
	subscribers   repository.SubscriberRepository
	units         repository.ConsumerUnitRepository
	originators   repository.OriginatorRepository
	invoices      repository.InvoiceRepository
	ledger        repository.LedgerRepository
	gw            Gateway
	defaultTariff decimal.Decimal
	log           zerolog.Logger
}

// NewLedgerPoster construye el poster. defaultTariff se usa cuando el suscriptor no tiene tarifa propia.
func NewLedgerPoster(
	subscribers repository.SubscriberRepository,
	units repository.ConsumerUnitRepository,
	originators repository.OriginatorRepository,
	invoices repository.InvoiceRepository,
	ledger repository.LedgerRepository,
	gw Gateway,
	defaultTariff decimal.Decimal,
	log zerolog.Logger,
) *LedgerPoster {
	return &LedgerPoster{
		subscribers:   subscribers,
		units:         units,
		originators:   originators,
		invoices:      invoices,
		ledger:        ledger,
		gw:            gw,
		defaultTariff: defaultTariff,
		log:           log,
	}
}

// OnActivation comisión de arranque: consumo medio de todas las unidades × split de activación.
func (p *LedgerPoster) OnActivation(ctx context.Context, subscriberID string) error {
	sub, orig, err := p.load(ctx, subscriberID)
	if err != nil || orig == nil {
		return err
	}
	units, err := p.units.ListBySubscriber(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("listar unidades: %w", err)
	}
	consumption := decimal.Zero
	for _, u := range units {
		consumption = consumption.Add(u.AverageConsumptionKWh)
	}
	return p.post(ctx, sub, orig, consumption, orig.StartSplitPct, entity.LedgerEntry{
		ReferenceType:  entity.LedgerRefSubscriber,
		ReferenceID:    sub.ID,
		Description:    "Comissão de ativação",
		IdempotencyKey: "commission:activation:" + sub.ID,
	})
}

// OnInvoicePaid comisión recurrente sobre una factura paga. Sin consumo en la factura
// se usa el promedio de su unidad consumidora.
func (p *LedgerPoster) OnInvoicePaid(ctx context.Context, invoiceID string) error {
	inv, err := p.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return sideeffect.Permanent(fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound))
	}
	sub, orig, err := p.load(ctx, inv.SubscriberID)
	if err != nil || orig == nil {
		return err
	}
	consumption := inv.ConsumptionKWh
	if consumption.IsZero() && inv.ConsumerUnitID != "" {
		unit, err := p.units.GetByID(ctx, inv.ConsumerUnitID)
		if err != nil {
			return fmt.Errorf("obtener unidad: %w", err)
		}
		if unit != nil {
			consumption = unit.AverageConsumptionKWh
		}
	}
	return p.post(ctx, sub, orig, consumption, orig.RecurringSplitPct, entity.LedgerEntry{
		ReferenceType:  entity.LedgerRefInvoice,
		ReferenceID:    inv.ID,
		Description:    "Comissão recorrente " + inv.Period,
		IdempotencyKey: "commission:recurring:" + inv.ID,
	})
}

// load devuelve (sub, nil, nil) si el suscriptor no tiene consultor: no hay comisión.
func (p *LedgerPoster) load(ctx context.Context, subscriberID string) (*entity.Subscriber, *entity.Originator, error) {
	sub, err := p.subscribers.GetByID(ctx, subscriberID)
	if err != nil {
		return nil, nil, fmt.Errorf("obtener suscriptor: %w", err)
	}
	if sub == nil {
		return nil, nil, sideeffect.Permanent(fmt.Errorf("suscriptor %s: %w", subscriberID, domain.ErrNotFound))
	}
	if sub.OriginatorID == "" {
		p.log.Debug().Str("subscriber_id", sub.ID).Msg("suscriptor sin consultor; sin comisión")
		return sub, nil, nil
	}
	orig, err := p.originators.GetByID(ctx, sub.OriginatorID)
	if err != nil {
		return nil, nil, fmt.Errorf("obtener consultor: %w", err)
	}
	if orig == nil {
		return nil, nil, sideeffect.Permanent(fmt.Errorf("consultor %s: %w", sub.OriginatorID, domain.ErrNotFound))
	}
	return sub, orig, nil
}

func (p *LedgerPoster) post(ctx context.Context, sub *entity.Subscriber, orig *entity.Originator, consumption, split decimal.Decimal, entry entity.LedgerEntry) error {
	tariff := sub.Tariff
	if !tariff.IsPositive() {
		tariff = p.defaultTariff
	}
	res := calc.Calculate(calc.Input{
		ConsumptionKWh: consumption,
		Tariff:         tariff,
		DiscountPct:    sub.DiscountPct,
		SplitPct:       split,
	})
	if !res.Commission.IsPositive() {
		p.log.Debug().Str("key", entry.IdempotencyKey).Msg("comisión cero; sin asiento")
		return nil
	}

	env, err := p.gw.ActiveEnvironment(ctx)
	if err != nil {
		env = entity.EnvironmentSandbox
	}
	entry.ID = uuid.New().String()
	entry.Amount = res.Commission
	entry.Kind = entity.LedgerKindCommission
	entry.OriginatorID = orig.ID
	entry.SubscriberID = sub.ID
	entry.Environment = env

	inserted, err := p.ledger.Append(ctx, &entry)
	if err != nil {
		return fmt.Errorf("asentar comisión: %w", err)
	}
	if !inserted {
		p.log.Debug().Str("key", entry.IdempotencyKey).Msg("comisión ya asentada")
		return nil
	}
	p.log.Info().Str("key", entry.IdempotencyKey).Str("originator_id", orig.ID).
		Str("commission", res.Commission.StringFixed(2)).Str("base", res.Base.StringFixed(2)).Msg("comisión asentada")
	return nil
}

// Payout transfiere value a la llave PIX del consultor.
func (p *LedgerPoster) Payout(ctx context.Context, originatorID string, value decimal.Decimal) (*gateway.Transfer, error) {
	if !value.IsPositive() {
		return nil, domain.NewValidationError("value", "debe ser mayor que cero")
	}
	orig, err := p.originators.GetByID(ctx, originatorID)
	if err != nil {
		return nil, fmt.Errorf("obtener consultor: %w", err)
	}
	if orig == nil {
		return nil, domain.ErrNotFound
	}
	if orig.PixKey == "" {
		return nil, domain.NewValidationError("pix_key", "el consultor no tiene llave PIX")
	}
	t, err := p.gw.CreateTransfer(ctx, gateway.NewTransfer{
		Value:             value.Round(2),
		PixKey:            orig.PixKey,
		Description:       "Comissão " + orig.Name,
		ExternalReference: "payout:" + orig.ID + ":" + uuid.New().String(),
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("originator_id", orig.ID).Str("transfer_id", t.ID).Str("value", value.StringFixed(2)).Msg("pago de comisión enviado")
	return t, nil
}
