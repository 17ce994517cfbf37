package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/pkg/jwt"
)

// Locals keys para el operador autenticado en Fiber.
const (
	LocalOperatorID = "operator_id"
	LocalScope      = "scope"
)

// AuthMiddleware valida el Bearer Token JWT y extrae OperatorID y Scope a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		operatorID, scope, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalOperatorID, operatorID)
		c.Locals(LocalScope, scope)
		return c.Next()
	}
}

// RequireScope exige que el token incluya alguno de los scopes indicados.
// Debe usarse DESPUÉS de AuthMiddleware. El claim scope admite varios valores separados por espacio.
func RequireScope(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		granted := strings.Fields(GetScope(c))
		if len(granted) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_SCOPE", Message: "el token no incluye scope"})
		}
		for _, g := range granted {
			for _, a := range allowed {
				if g == a {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "scope insuficiente para esta operación"})
	}
}

// GetOperatorID devuelve el operador del contexto (después del middleware de auth).
func GetOperatorID(c *fiber.Ctx) string {
	v := c.Locals(LocalOperatorID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetScope devuelve el scope del token.
func GetScope(c *fiber.Ctx) string {
	v := c.Locals(LocalScope)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
