package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranca-api/internal/application/dto"
)

// CoverageReader lo implementa *billing.InvoiceQueryUseCase.
type CoverageReader interface {
	Coverage(ctx context.Context, invoiceID string) (*dto.CoverageResponse, error)
}

// StatementDownloader lo implementa *billing.PDFUseCase.
type StatementDownloader interface {
	DownloadConsolidatedPDF(ctx context.Context, consolidatedID string) ([]byte, string, error)
}

// InvoiceHandler consultas sobre facturas y consolidados (protegido).
type InvoiceHandler struct {
	query CoverageReader
	pdf   StatementDownloader
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(query CoverageReader, pdf StatementDownloader) *InvoiceHandler {
	return &InvoiceHandler{query: query, pdf: pdf}
}

// Coverage indica si la factura no tiene cobro, tiene cobro propio o forma parte de un consolidado.
// GET /api/invoices/:id/coverage
func (h *InvoiceHandler) Coverage(c *fiber.Ctx) error {
	id, err := parseID("id", c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.query.Coverage(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DownloadConsolidatedPDF devuelve el extracto PDF del consolidado.
// GET /api/consolidated-invoices/:id/pdf
func (h *InvoiceHandler) DownloadConsolidatedPDF(c *fiber.Ctx) error {
	id, err := parseID("id", c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	pdfBytes, filename, err := h.pdf.DownloadConsolidatedPDF(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}
