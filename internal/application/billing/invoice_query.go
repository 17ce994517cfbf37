package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

// InvoiceQueryUseCase consultas de lectura sobre facturas.
type InvoiceQueryUseCase struct {
	invoices repository.InvoiceRepository
}

// NewInvoiceQueryUseCase construye el caso de uso.
func NewInvoiceQueryUseCase(invoices repository.InvoiceRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{invoices: invoices}
}

// Coverage indica si la factura está sin cobro, con cobro propio o dentro de un consolidado activo.
func (uc *InvoiceQueryUseCase) Coverage(ctx context.Context, invoiceID string) (*dto.CoverageResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	cov, err := uc.invoices.Coverage(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cobertura de la factura: %w", err)
	}
	return &dto.CoverageResponse{
		InvoiceID:        invoiceID,
		Kind:             string(cov.Kind),
		GatewayPaymentID: cov.GatewayPaymentID,
		ConsolidatedID:   cov.ConsolidatedID,
	}, nil
}
