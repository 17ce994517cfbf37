package http

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/internal/domain"
)

// webhookTokenHeader header que el gateway envía con el token configurado en su panel.
const webhookTokenHeader = "asaas-access-token"

// EventHandler lo implementa *billing.WebhookReconcilerUseCase.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev billing.PaymentEvent) error
}

// WebhookHandler recibe las notificaciones de pago del gateway (público).
type WebhookHandler struct {
	uc    EventHandler
	token string
	log   zerolog.Logger
}

// NewWebhookHandler construye el handler. token vacío desactiva la verificación del header.
func NewWebhookHandler(uc EventHandler, token string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{uc: uc, token: token, log: log}
}

// PaymentEvents aplica un evento de pago.
// POST /webhooks/payment-events
//
//   - 200 {"received":true} → aplicado, duplicado u omitido (evento no mapeado o cobro desconocido).
//   - 400 {"error":...}     → cuerpo ilegible o sin event / payment.id.
//   - 500 {"error":...}     → fallo de infraestructura; el gateway reintenta.
func (h *WebhookHandler) PaymentEvents(c *fiber.Ctx) error {
	if h.token != "" && subtle.ConstantTimeCompare([]byte(c.Get(webhookTokenHeader)), []byte(h.token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.WebhookError{Error: "token de webhook inválido"})
	}

	var ev billing.PaymentEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookError{Error: "cuerpo inválido"})
	}

	err := h.uc.HandleEvent(c.UserContext(), ev)
	switch {
	case err == nil, errors.Is(err, domain.ErrReconciliationSkip):
		return c.JSON(dto.WebhookAck{Received: true})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.WebhookError{Error: err.Error()})
	}
	h.log.Error().Err(err).Str("event_id", ev.ID).Str("payment_id", ev.Payment.ID).Msg("webhook: fallo al procesar evento")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.WebhookError{Error: err.Error()})
}
