package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranca-api/internal/application/dto"
)

// SubscriberSaver lo implementa *billing.SubscriberUseCase.
type SubscriberSaver interface {
	Save(ctx context.Context, id string, in dto.SaveSubscriberRequest) (*dto.SaveSubscriberResponse, error)
}

// SubscriberHandler alta y edición de suscriptores (protegido).
type SubscriberHandler struct {
	uc SubscriberSaver
}

// NewSubscriberHandler construye el handler.
func NewSubscriberHandler(uc SubscriberSaver) *SubscriberHandler {
	return &SubscriberHandler{uc: uc}
}

// Save crea o actualiza un suscriptor y lo sincroniza con el gateway.
// PUT /api/subscribers/:id
//
// Un fallo de sincronización no impide el guardado: la respuesta trae synced=false y sync_error.
func (h *SubscriberHandler) Save(c *fiber.Ctx) error {
	id, err := parseID("id", c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	var in dto.SaveSubscriberRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if strings.TrimSpace(in.OriginatorID) != "" {
		if in.OriginatorID, err = parseID("originator_id", in.OriginatorID); err != nil {
			return respondError(c, err)
		}
	}
	out, err := h.uc.Save(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
