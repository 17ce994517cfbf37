package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrConflict     = errors.New("conflicto con el estado actual")

	ErrConfiguration      = errors.New("configuración de integración incompleta")
	ErrValidation         = errors.New("validación fallida")
	ErrGateway            = errors.New("error del gateway de pagos")
	ErrReconciliationSkip = errors.New("evento ignorado en la reconciliación")
	ErrDuplicateDocument  = errors.New("documento ya registrado en otro suscriptor")
)

// ConfigurationError credenciales ausentes para el entorno activo. Se devuelve tal cual al caller.
type ConfigurationError struct {
	Service     string
	Environment string
	Missing     []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("integración %q (%s): faltan %s", e.Service, e.Environment, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError entrada mal formada, rechazada antes de cualquier llamada de red.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError atajo para los casos de uso.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// GatewayError respuesta no-2xx, payload de error o fallo de transporte del gateway.
// Timeout/Transport significan estado desconocido: la operación pudo haberse aplicado del otro lado.
type GatewayError struct {
	Op          string
	Status      int
	Code        string
	Description string
	Timeout     bool
	Transport   bool
	Err         error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("gateway %s: timeout (estado desconocido)", e.Op)
	case e.Transport:
		return fmt.Sprintf("gateway %s: fallo de red: %v", e.Op, e.Err)
	case e.Description != "":
		return fmt.Sprintf("gateway %s: HTTP %d: %s", e.Op, e.Status, e.Description)
	}
	return fmt.Sprintf("gateway %s: HTTP %d", e.Op, e.Status)
}

func (e *GatewayError) Unwrap() error { return ErrGateway }

// IsNotFound true si el gateway respondió 404.
func (e *GatewayError) IsNotFound() bool { return e.Status == 404 }

// UnknownState true si no se sabe si la operación se aplicó upstream.
func (e *GatewayError) UnknownState() bool { return e.Timeout || e.Transport }

// ReconciliationSkip no es un fallo: evento no mapeado o cobro desconocido. Se reconoce con éxito.
type ReconciliationSkip struct {
	Reason string
}

func (e *ReconciliationSkip) Error() string { return "reconciliación omitida: " + e.Reason }

func (e *ReconciliationSkip) Unwrap() error { return ErrReconciliationSkip }

// AsGatewayError extrae el *GatewayError de una cadena de errores.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
