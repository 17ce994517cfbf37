package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// ChargeIssuer lo implementa *billing.ChargeIssuerUseCase.
type ChargeIssuer interface {
	IssueIndividual(ctx context.Context, subscriberID, invoiceID string, dueDate *time.Time) (*billing.IssueResult, error)
	IssueConsolidated(ctx context.Context, subscriberID string, invoiceIDs []string, dueDate *time.Time) (*billing.IssueResult, error)
}

// ChargeMutator lo implementa *billing.ChargeMutatorUseCase.
type ChargeMutator interface {
	UpdateCharge(ctx context.Context, ref billing.ChargeRef, upd billing.ChargeUpdate) error
	CancelCharge(ctx context.Context, ref billing.ChargeRef) error
}

// ChargeHandler emite, actualiza y cancela cobros (protegido).
type ChargeHandler struct {
	issuer  ChargeIssuer
	mutator ChargeMutator
}

// NewChargeHandler construye el handler.
func NewChargeHandler(issuer ChargeIssuer, mutator ChargeMutator) *ChargeHandler {
	return &ChargeHandler{issuer: issuer, mutator: mutator}
}

// Issue emite un cobro individual o consolidado.
// POST /api/charges
func (h *ChargeHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueChargeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	dueDate, ok := parseDate(in.DueDate)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "due_date debe tener formato YYYY-MM-DD"})
	}

	var subscriberID string
	if strings.TrimSpace(in.SubscriberID) != "" {
		id, err := parseID("subscriber_id", in.SubscriberID)
		if err != nil {
			return respondError(c, err)
		}
		subscriberID = id
	}

	var (
		res *billing.IssueResult
		err error
	)
	switch in.Mode {
	case dto.ChargeModeIndividual:
		if len(in.InvoiceIDs) != 1 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el modo individual exige exactamente una factura"})
		}
		invoiceID, perr := parseID("invoice_ids", in.InvoiceIDs[0])
		if perr != nil {
			return respondError(c, perr)
		}
		res, err = h.issuer.IssueIndividual(c.UserContext(), subscriberID, invoiceID, dueDate)
	case dto.ChargeModeConsolidated:
		if subscriberID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "subscriber_id es requerido"})
		}
		invoiceIDs, perr := parseIDs("invoice_ids", in.InvoiceIDs)
		if perr != nil {
			return respondError(c, perr)
		}
		res, err = h.issuer.IssueConsolidated(c.UserContext(), subscriberID, invoiceIDs, dueDate)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "mode debe ser individual o consolidated"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.IssueChargeResponse{
		Success:               true,
		GatewayChargeID:       res.GatewayChargeID,
		BoletoURL:             res.BoletoURL,
		ConsolidatedInvoiceID: res.ConsolidatedInvoiceID,
		Value:                 res.Value,
		DueDate:               res.DueDate.Format(dateLayout),
	})
}

// Update cambia valor y/o vencimiento de un cobro.
// PUT /api/charges/:kind/:id
func (h *ChargeHandler) Update(c *fiber.Ctx) error {
	ref, err := chargeRef(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateChargeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	dueDate, ok := parseDate(in.DueDate)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "due_date debe tener formato YYYY-MM-DD"})
	}
	if err := h.mutator.UpdateCharge(c.UserContext(), ref, billing.ChargeUpdate{Value: in.Value, DueDate: dueDate}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Cancel cancela un cobro. Repetir la cancelación es un éxito.
// DELETE /api/charges/:kind/:id
func (h *ChargeHandler) Cancel(c *fiber.Ctx) error {
	ref, err := chargeRef(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.mutator.CancelCharge(c.UserContext(), ref); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func chargeRef(c *fiber.Ctx) (billing.ChargeRef, error) {
	kind := c.Params("kind")
	if kind != entity.ChargeKindInvoice && kind != entity.ChargeKindConsolidated {
		return billing.ChargeRef{}, domain.NewValidationError("kind", "debe ser invoice o consolidated")
	}
	id, err := parseID("id", c.Params("id"))
	if err != nil {
		return billing.ChargeRef{}, err
	}
	return billing.ChargeRef{Kind: kind, ID: id}, nil
}

// parseDate "" → (nil, true): sin fecha explícita.
func parseDate(s string) (*time.Time, bool) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
