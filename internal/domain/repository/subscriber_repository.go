package repository

import (
	"context"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
)

// SubscriberRepository define el puerto de persistencia para Subscriber.
type SubscriberRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Subscriber, error)
	// GetByDocument busca por CPF/CNPJ normalizado (solo dígitos).
	GetByDocument(ctx context.Context, document string) (*entity.Subscriber, error)
	Save(ctx context.Context, s *entity.Subscriber) error
	SetGatewayCustomerID(ctx context.Context, id, gatewayCustomerID string) error
}

// ConsumerUnitRepository define el puerto de persistencia para ConsumerUnit.
type ConsumerUnitRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ConsumerUnit, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]*entity.ConsumerUnit, error)
}

// OriginatorRepository define el puerto de lectura de consultores.
type OriginatorRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Originator, error)
}
