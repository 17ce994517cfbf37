package gateway

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Transfer transferencia saliente (pago de comisión vía PIX).
type Transfer struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Value  decimal.Decimal `json:"value"`
}

// NewTransfer datos para transferir a una llave PIX.
type NewTransfer struct {
	Value             decimal.Decimal
	PixKey            string
	Description       string
	ExternalReference string
}

// CreateTransfer envía value a la llave PIX indicada.
func (c *Client) CreateTransfer(ctx context.Context, in NewTransfer) (*Transfer, error) {
	body := struct {
		Value             any    `json:"value"`
		PixAddressKey     string `json:"pixAddressKey"`
		Description       string `json:"description,omitempty"`
		ExternalReference string `json:"externalReference,omitempty"`
	}{
		Value:             amount(in.Value),
		PixAddressKey:     in.PixKey,
		Description:       in.Description,
		ExternalReference: in.ExternalReference,
	}
	var out Transfer
	if err := c.do(ctx, http.MethodPost, "/transfers", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
