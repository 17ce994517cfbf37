package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Customer cliente en el gateway.
type Customer struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Email             string `json:"email,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	Address           string `json:"address,omitempty"`
	AddressNumber     string `json:"addressNumber,omitempty"`
	Complement        string `json:"complement,omitempty"`
	Province          string `json:"province,omitempty"`
	City              string `json:"cityName,omitempty"`
	State             string `json:"state,omitempty"`
	PostalCode        string `json:"postalCode,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

type customerList struct {
	TotalCount int        `json:"totalCount"`
	Data       []Customer `json:"data"`
}

// FindCustomerByDocument busca por CPF/CNPJ (solo dígitos). nil si no existe.
func (c *Client) FindCustomerByDocument(ctx context.Context, document string) (*Customer, error) {
	var list customerList
	if err := c.do(ctx, http.MethodGet, "/customers?cpfCnpj="+url.QueryEscape(document), nil, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

// CreateCustomer crea el cliente y devuelve el registro con su id.
func (c *Client) CreateCustomer(ctx context.Context, in Customer) (*Customer, error) {
	in.ID = ""
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomer reemplaza el perfil del cliente id.
func (c *Client) UpdateCustomer(ctx context.Context, id string, in Customer) (*Customer, error) {
	in.ID = ""
	var out Customer
	if err := c.do(ctx, http.MethodPut, "/customers/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}
