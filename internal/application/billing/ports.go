package billing

import (
	"context"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
)

// BillingTxRunner ejecuta una función dentro de una transacción con repos de facturas y consolidados.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		consolidatedRepo repository.ConsolidatedInvoiceRepository,
	) error) error
}

// PaymentGateway puerto de salida hacia el gateway de pagos.
// *gateway.Client lo implementa; los tests inyectan un fake.
type PaymentGateway interface {
	ActiveEnvironment(ctx context.Context) (string, error)

	FindCustomerByDocument(ctx context.Context, document string) (*gateway.Customer, error)
	CreateCustomer(ctx context.Context, in gateway.Customer) (*gateway.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in gateway.Customer) (*gateway.Customer, error)

	CreatePayment(ctx context.Context, in gateway.NewPayment) (*gateway.Payment, error)
	UpdatePayment(ctx context.Context, id string, ch gateway.PaymentChanges) (*gateway.Payment, error)
	// DeletePayment trata el 404 como éxito.
	DeletePayment(ctx context.Context, id string) error
	// GetPayment devuelve nil si el cobro no existe.
	GetPayment(ctx context.Context, id string) (*gateway.Payment, error)
	FindPaymentsByExternalReference(ctx context.Context, ref string) ([]gateway.Payment, error)
}

var _ PaymentGateway = (*gateway.Client)(nil)

// CommissionPoster dispara comisiones; lo implementa commission.LedgerPoster.
// Se invoca desde el dispatcher de efectos, nunca en el camino principal.
type CommissionPoster interface {
	OnActivation(ctx context.Context, subscriberID string) error
	OnInvoicePaid(ctx context.Context, invoiceID string) error
}

// StatementPDFGenerator genera el extracto PDF de un cobro consolidado.
type StatementPDFGenerator interface {
	GenerateConsolidatedPDF(
		ctx context.Context,
		consolidated *entity.ConsolidatedInvoice,
		subscriber *entity.Subscriber,
		members []*entity.Invoice,
	) ([]byte, error)
}
