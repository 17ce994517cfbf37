package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/jhoicas/Cobranca-api/pkg/document"
	"github.com/jhoicas/Cobranca-api/pkg/textutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CustomerSyncUseCase mantiene la identidad del suscriptor en el gateway.
// Busca antes de crear: repetir la operación nunca duplica clientes.
type CustomerSyncUseCase struct {
	subscribers repository.SubscriberRepository
	gw          PaymentGateway
	group       singleflight.Group
	log         zerolog.Logger
}

// NewCustomerSyncUseCase construye el caso de uso.
func NewCustomerSyncUseCase(subscribers repository.SubscriberRepository, gw PaymentGateway, log zerolog.Logger) *CustomerSyncUseCase {
	return &CustomerSyncUseCase{subscribers: subscribers, gw: gw, log: log}
}

// customerIdentity resultado compartido de la búsqueda o creación por documento.
type customerIdentity struct {
	id           string
	created      bool
	lookupFailed bool
}

// ResolveCustomer devuelve el id de cliente del gateway para el suscriptor.
// Si la actualización del perfil falla devuelve el id conocido junto con el error.
func (uc *CustomerSyncUseCase) ResolveCustomer(ctx context.Context, subscriberID string) (string, error) {
	sub, err := uc.subscribers.GetByID(ctx, subscriberID)
	if err != nil {
		return "", fmt.Errorf("obtener suscriptor: %w", err)
	}
	if sub == nil {
		return "", domain.ErrNotFound
	}
	return uc.Resolve(ctx, sub)
}

// Resolve igual que ResolveCustomer con el suscriptor ya cargado.
// Llamadas concurrentes para el mismo documento comparten la búsqueda o creación del cliente;
// la actualización del perfil corre por llamador, con su propio contexto y sus datos.
func (uc *CustomerSyncUseCase) Resolve(ctx context.Context, sub *entity.Subscriber) (string, error) {
	doc := document.Digits(sub.Document)
	if doc == "" {
		return "", domain.NewValidationError("document", "CPF/CNPJ obligatorio para sincronizar con el gateway")
	}
	profile := customerProfile(sub, doc)

	v, err, shared := uc.group.Do(doc, func() (any, error) {
		return uc.findOrCreate(context.WithoutCancel(ctx), sub.ID, doc, profile)
	})
	ident := v.(customerIdentity)
	if err != nil {
		if ident.lookupFailed {
			return sub.GatewayCustomerID, err
		}
		return "", err
	}

	if err := uc.persist(ctx, sub, ident.id); err != nil {
		return ident.id, err
	}
	// Quien creó el cliente ya envió su perfil; el resto lo actualiza con el propio.
	if ident.created && !shared {
		return ident.id, nil
	}
	if _, err := uc.gw.UpdateCustomer(ctx, ident.id, profile); err != nil {
		uc.log.Warn().Err(err).Str("subscriber_id", sub.ID).Str("customer_id", ident.id).
			Msg("no se pudo actualizar el perfil en el gateway; se mantiene el id conocido")
		return ident.id, err
	}
	return ident.id, nil
}

func (uc *CustomerSyncUseCase) findOrCreate(ctx context.Context, subscriberID, doc string, profile gateway.Customer) (customerIdentity, error) {
	existing, err := uc.gw.FindCustomerByDocument(ctx, doc)
	if err != nil {
		return customerIdentity{lookupFailed: true}, err
	}
	if existing != nil {
		return customerIdentity{id: existing.ID}, nil
	}
	created, err := uc.gw.CreateCustomer(ctx, profile)
	if err != nil {
		return customerIdentity{}, err
	}
	uc.log.Info().Str("subscriber_id", subscriberID).Str("customer_id", created.ID).Msg("cliente creado en el gateway")
	return customerIdentity{id: created.ID, created: true}, nil
}

func (uc *CustomerSyncUseCase) persist(ctx context.Context, sub *entity.Subscriber, id string) error {
	if id == "" || id == sub.GatewayCustomerID {
		return nil
	}
	if err := uc.subscribers.SetGatewayCustomerID(ctx, sub.ID, id); err != nil {
		return fmt.Errorf("guardar id de cliente del gateway: %w", err)
	}
	sub.GatewayCustomerID = id
	return nil
}

func customerProfile(sub *entity.Subscriber, doc string) gateway.Customer {
	return gateway.Customer{
		Name:              textutil.FoldAccents(sub.Name),
		CpfCnpj:           doc,
		Email:             sub.Email,
		MobilePhone:       document.Digits(sub.Phone),
		Address:           sub.Address.Street,
		AddressNumber:     sub.Address.Number,
		Complement:        sub.Address.Complement,
		Province:          sub.Address.District,
		City:              sub.Address.City,
		State:             sub.Address.State,
		PostalCode:        document.Digits(sub.Address.PostalCode),
		ExternalReference: sub.ID,
	}
}
