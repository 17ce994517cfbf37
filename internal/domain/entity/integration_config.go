package entity

import "time"

// Entornos del gateway.
const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"
)

// IntegrationConfig credenciales por servicio; cada entorno con su URL base y su llave.
type IntegrationConfig struct {
	ServiceName        string
	EndpointURL        string
	APIKey             string
	SandboxEndpointURL string
	SandboxAPIKey      string
	Environment        string
	UpdatedAt          time.Time
}

// ActiveEnvironment entorno seleccionado por el admin; vacío o desconocido = sandbox.
func (c *IntegrationConfig) ActiveEnvironment() string {
	if c.Environment == EnvironmentProduction {
		return EnvironmentProduction
	}
	return EnvironmentSandbox
}

// Credentials devuelve URL base y llave del entorno pedido.
func (c *IntegrationConfig) Credentials(env string) (baseURL, apiKey string) {
	if env == EnvironmentProduction {
		return c.EndpointURL, c.APIKey
	}
	return c.SandboxEndpointURL, c.SandboxAPIKey
}
