package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

// PDFUseCase genera el extracto PDF de un cobro consolidado.
type PDFUseCase struct {
	consolidatedRepo repository.ConsolidatedInvoiceRepository
	invoiceRepo      repository.InvoiceRepository
	subscriberRepo   repository.SubscriberRepository
	generator        StatementPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	consolidatedRepo repository.ConsolidatedInvoiceRepository,
	invoiceRepo repository.InvoiceRepository,
	subscriberRepo repository.SubscriberRepository,
	generator StatementPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		consolidatedRepo: consolidatedRepo,
		invoiceRepo:      invoiceRepo,
		subscriberRepo:   subscriberRepo,
		generator:        generator,
	}
}

// DownloadConsolidatedPDF arma el extracto con el detalle de cada factura incluida.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el consolidado no existe.
//   - domain.ErrConflict         si el consolidado fue cancelado.
func (uc *PDFUseCase) DownloadConsolidatedPDF(ctx context.Context, consolidatedID string) (pdfBytes []byte, filename string, err error) {
	c, err := uc.consolidatedRepo.GetByID(ctx, consolidatedID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener consolidado: %w", err)
	}
	if c == nil {
		return nil, "", domain.ErrNotFound
	}
	if !c.IsActive() {
		return nil, "", fmt.Errorf("%w: el consolidado %s está cancelado", domain.ErrConflict, c.ID)
	}

	sub, err := uc.subscriberRepo.GetByID(ctx, c.SubscriberID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener suscriptor: %w", err)
	}
	if sub == nil {
		return nil, "", fmt.Errorf("pdf: suscriptor %s: %w", c.SubscriberID, domain.ErrNotFound)
	}

	members, err := uc.invoiceRepo.ListByConsolidated(ctx, c.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener facturas: %w", err)
	}

	pdfBytes, err = uc.generator.GenerateConsolidatedPDF(ctx, c, sub, members)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("fatura_consolidada_%s.pdf", c.DueDate.Format("2006-01"))
	return pdfBytes, filename, nil
}
