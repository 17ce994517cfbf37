package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

// Credentials URL base y llave para un entorno concreto.
type Credentials struct {
	Environment string
	BaseURL     string
	APIKey      string
}

// CredentialResolver lee integration_configs en cada request; no hay caché global.
type CredentialResolver struct {
	repo    repository.IntegrationConfigRepository
	service string
}

// NewCredentialResolver construye el resolver para el servicio (ej: "asaas").
func NewCredentialResolver(repo repository.IntegrationConfigRepository, service string) *CredentialResolver {
	return &CredentialResolver{repo: repo, service: service}
}

type cacheKey struct{}

type credentialCache struct {
	mu  sync.Mutex
	cfg *entity.IntegrationConfig
}

// WithCredentialCache habilita una caché de la fila de configuración que vive lo que vive el ctx
// (una request HTTP o una corrida de reconciliación).
func WithCredentialCache(ctx context.Context) context.Context {
	if _, ok := ctx.Value(cacheKey{}).(*credentialCache); ok {
		return ctx
	}
	return context.WithValue(ctx, cacheKey{}, &credentialCache{})
}

func (r *CredentialResolver) load(ctx context.Context) (*entity.IntegrationConfig, error) {
	cache, _ := ctx.Value(cacheKey{}).(*credentialCache)
	if cache != nil {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		if cache.cfg != nil {
			return cache.cfg, nil
		}
	}
	cfg, err := r.repo.GetByService(ctx, r.service)
	if err != nil {
		return nil, fmt.Errorf("leer integración %s: %w", r.service, err)
	}
	if cfg == nil {
		return nil, &domain.ConfigurationError{
			Service:     r.service,
			Environment: entity.EnvironmentSandbox,
			Missing:     []string{"integration_configs." + r.service},
		}
	}
	if cache != nil {
		cache.cfg = cfg
	}
	return cfg, nil
}

// ActiveEnvironment entorno seleccionado en la configuración (sandbox si no hay valor).
func (r *CredentialResolver) ActiveEnvironment(ctx context.Context) (string, error) {
	cfg, err := r.load(ctx)
	if err != nil {
		return "", err
	}
	return cfg.ActiveEnvironment(), nil
}

// Resolve devuelve las credenciales del entorno pedido; env vacío = entorno activo.
// Faltar URL o llave es un *domain.ConfigurationError.
func (r *CredentialResolver) Resolve(ctx context.Context, env string) (*Credentials, error) {
	cfg, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if env == "" {
		env = cfg.ActiveEnvironment()
	}
	baseURL, apiKey := cfg.Credentials(env)
	var missing []string
	prefix := ""
	if env == entity.EnvironmentSandbox {
		prefix = "sandbox_"
	}
	if strings.TrimSpace(baseURL) == "" {
		missing = append(missing, prefix+"endpoint_url")
	}
	if strings.TrimSpace(apiKey) == "" {
		missing = append(missing, prefix+"api_key")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Service: r.service, Environment: env, Missing: missing}
	}
	return &Credentials{
		Environment: env,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
	}, nil
}
