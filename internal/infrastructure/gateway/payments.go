package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/shopspring/decimal"
)

// BillingTypeBoleto única forma de pago emitida por el motor.
const BillingTypeBoleto = "BOLETO"

// dateLayout formato de fechas del gateway.
const dateLayout = "2006-01-02"

// Payment cobro devuelto por el gateway.
type Payment struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Status            string          `json:"status"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"dueDate"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
	BankSlipURL       string          `json:"bankSlipUrl"`
	InvoiceURL        string          `json:"invoiceUrl"`
	Deleted           bool            `json:"deleted"`
}

// BoletoURL URL del boleto, o la página del cobro si el boleto aún no existe.
func (p *Payment) BoletoURL() string {
	if p.BankSlipURL != "" {
		return p.BankSlipURL
	}
	return p.InvoiceURL
}

// NewPayment datos para crear un cobro.
type NewPayment struct {
	Customer          string
	Value             decimal.Decimal
	DueDate           string // YYYY-MM-DD
	Description       string
	ExternalReference string
}

// PaymentChanges cambios de valor y/o vencimiento; campos nil no se envían.
type PaymentChanges struct {
	Value   *decimal.Decimal
	DueDate string
}

type paymentBody struct {
	Customer          string      `json:"customer,omitempty"`
	BillingType       string      `json:"billingType,omitempty"`
	Value             json.Number `json:"value,omitempty"`
	DueDate           string      `json:"dueDate,omitempty"`
	Description       string      `json:"description,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
}

type paymentList struct {
	TotalCount int       `json:"totalCount"`
	Data       []Payment `json:"data"`
}

type deleteResult struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

func amount(v decimal.Decimal) json.Number {
	return json.Number(v.StringFixed(2))
}

// CreatePayment crea un cobro BOLETO.
func (c *Client) CreatePayment(ctx context.Context, in NewPayment) (*Payment, error) {
	body := paymentBody{
		Customer:          in.Customer,
		BillingType:       BillingTypeBoleto,
		Value:             amount(in.Value),
		DueDate:           in.DueDate,
		Description:       in.Description,
		ExternalReference: in.ExternalReference,
	}
	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &domain.GatewayError{Op: "POST /payments", Status: http.StatusOK, Description: "respuesta sin id de cobro"}
	}
	return &out, nil
}

// UpdatePayment cambia valor y/o vencimiento del cobro id.
func (c *Client) UpdatePayment(ctx context.Context, id string, ch PaymentChanges) (*Payment, error) {
	body := paymentBody{DueDate: ch.DueDate}
	if ch.Value != nil {
		body.Value = amount(*ch.Value)
	}
	var out Payment
	if err := c.do(ctx, http.MethodPut, "/payments/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePayment elimina el cobro. Un 404 se trata como ya eliminado.
func (c *Client) DeletePayment(ctx context.Context, id string) error {
	var out deleteResult
	err := c.do(ctx, http.MethodDelete, "/payments/"+url.PathEscape(id), nil, &out)
	if gwErr, ok := domain.AsGatewayError(err); ok && gwErr.IsNotFound() {
		return nil
	}
	return err
}

// GetPayment consulta el cobro. nil si el gateway responde 404.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var out Payment
	err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil, &out)
	if gwErr, ok := domain.AsGatewayError(err); ok && gwErr.IsNotFound() {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindPaymentsByExternalReference cobros creados con la referencia dada (recuperación tras timeout).
func (c *Client) FindPaymentsByExternalReference(ctx context.Context, ref string) ([]Payment, error) {
	var list paymentList
	if err := c.do(ctx, http.MethodGet, "/payments?externalReference="+url.QueryEscape(ref), nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}
