package repository

import (
	"context"

	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
)

// IntegrationConfigRepository lectura de credenciales por servicio (ej: "asaas").
type IntegrationConfigRepository interface {
	GetByService(ctx context.Context, serviceName string) (*entity.IntegrationConfig, error)
}
