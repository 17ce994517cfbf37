package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

var _ repository.IntegrationConfigRepository = (*IntegrationConfigRepo)(nil)

// IntegrationConfigRepo lectura de integration_configs. El core nunca escribe esta tabla.
type IntegrationConfigRepo struct {
	q Querier
}

// NewIntegrationConfigRepository construye el adaptador.
func NewIntegrationConfigRepository(q Querier) *IntegrationConfigRepo {
	return &IntegrationConfigRepo{q: q}
}

// GetByService devuelve la fila del servicio o (nil, nil) si no existe.
func (r *IntegrationConfigRepo) GetByService(ctx context.Context, serviceName string) (*entity.IntegrationConfig, error) {
	query := `
		SELECT service_name, COALESCE(endpoint_url, ''), COALESCE(api_key, ''),
		       COALESCE(sandbox_endpoint_url, ''), COALESCE(sandbox_api_key, ''), environment, updated_at
		FROM integration_configs WHERE service_name = $1`
	var c entity.IntegrationConfig
	err := r.q.QueryRow(ctx, query, serviceName).Scan(
		&c.ServiceName, &c.EndpointURL, &c.APIKey, &c.SandboxEndpointURL, &c.SandboxAPIKey, &c.Environment, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get integration config: %w", err)
	}
	return &c, nil
}
