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

// PaymentEvent cuerpo del webhook del gateway (solo los campos usados).
type PaymentEvent struct {
	ID      string       `json:"id"`
	Event   string       `json:"event"`
	Payment EventPayment `json:"payment"`
}

// EventPayment cobro embebido en el evento.
type EventPayment struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"externalReference"`
}

// Validate estructura mínima del evento.
func (e PaymentEvent) Validate() error {
	if e.Event == "" {
		return domain.NewValidationError("event", "campo obligatorio")
	}
	if e.Payment.ID == "" {
		return domain.NewValidationError("payment.id", "campo obligatorio")
	}
	return nil
}

// WebhookReconcilerUseCase traduce eventos del gateway a transiciones locales.
type WebhookReconcilerUseCase struct {
	invoices     repository.InvoiceRepository
	consolidated repository.ConsolidatedInvoiceRepository
	events       repository.GatewayEventRepository
	applier      *StatusApplier
	gw           PaymentGateway
	log          zerolog.Logger
}

// NewWebhookReconcilerUseCase construye el caso de uso. events puede ser nil (sin deduplicación).
func NewWebhookReconcilerUseCase(
	invoices repository.InvoiceRepository,
	consolidated repository.ConsolidatedInvoiceRepository,
	events repository.GatewayEventRepository,
	applier *StatusApplier,
	gw PaymentGateway,
	log zerolog.Logger,
) *WebhookReconcilerUseCase {
	return &WebhookReconcilerUseCase{
		invoices:     invoices,
		consolidated: consolidated,
		events:       events,
		applier:      applier,
		gw:           gw,
		log:          log,
	}
}

// HandleEvent procesa un evento. Devuelve *ReconciliationSkip (no es fallo) cuando el
// evento no está mapeado, el cobro no se conoce o la transición se rechaza.
// Un evento ya procesado se reconoce sin reprocesar.
func (uc *WebhookReconcilerUseCase) HandleEvent(ctx context.Context, ev PaymentEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	log := uc.log.With().Str("event", ev.Event).Str("payment_id", ev.Payment.ID).Str("event_id", ev.ID).Logger()

	if ev.ID != "" && uc.events != nil {
		seen, err := uc.events.Exists(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("consultar eventos procesados: %w", err)
		}
		if seen {
			log.Debug().Msg("evento duplicado; ya procesado")
			return nil
		}
	}

	outcome := domainbilling.OutcomeForEvent(ev.Event)
	if outcome == domainbilling.OutcomeNone {
		log.Debug().Msg("evento sin mapeo; ignorado")
		return &domain.ReconciliationSkip{Reason: "evento " + ev.Event + " no mapeado"}
	}
	gatewayStatus := domainbilling.GatewayStatusFor(outcome, ev.Event)
	env := uc.environment(ctx, log)

	err := uc.apply(ctx, ev.Payment.ID, outcome, gatewayStatus, env)
	var skip *domain.ReconciliationSkip
	switch {
	case errors.As(err, &skip):
		log.Info().Str("reason", skip.Reason).Msg("evento reconocido sin cambios")
		uc.record(ctx, ev, log)
		return err
	case err != nil:
		log.Error().Err(err).Msg("no se pudo aplicar el evento")
		return err
	}
	uc.record(ctx, ev, log)
	return nil
}

// apply busca el cobro primero en facturas y luego en consolidados.
func (uc *WebhookReconcilerUseCase) apply(ctx context.Context, paymentID string, outcome domainbilling.Outcome, gatewayStatus, env string) error {
	inv, err := uc.invoices.GetByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("buscar factura por cobro: %w", err)
	}
	if inv != nil {
		return uc.applier.ApplyToInvoice(ctx, inv.ID, outcome, gatewayStatus, env)
	}
	c, err := uc.consolidated.GetByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("buscar consolidado por cobro: %w", err)
	}
	if c != nil {
		return uc.applier.ApplyToConsolidated(ctx, c.ID, outcome, gatewayStatus, env)
	}
	return &domain.ReconciliationSkip{Reason: "cobro " + paymentID + " desconocido"}
}

func (uc *WebhookReconcilerUseCase) record(ctx context.Context, ev PaymentEvent, log zerolog.Logger) {
	if ev.ID == "" || uc.events == nil {
		return
	}
	if _, err := uc.events.Record(ctx, &entity.GatewayEvent{
		EventID:    ev.ID,
		Event:      ev.Event,
		PaymentID:  ev.Payment.ID,
		ReceivedAt: time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Msg("no se pudo registrar el evento procesado")
	}
}

// environment etiqueta para los asientos; sin configuración válida se usa sandbox.
func (uc *WebhookReconcilerUseCase) environment(ctx context.Context, log zerolog.Logger) string {
	env, err := uc.gw.ActiveEnvironment(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("entorno activo no disponible; se registra como sandbox")
		return entity.EnvironmentSandbox
	}
	return env
}
