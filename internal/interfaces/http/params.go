package http

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Cobranca-api/internal/domain"
)

// parseID exige un UUID antes de llegar a la base: un id mal formado es un 400, no un error de SQL.
func parseID(field, raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.NewValidationError(field, "debe ser un UUID")
	}
	return id.String(), nil
}

// parseIDs valida cada id de la lista con parseID.
func parseIDs(field string, raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(field, r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
