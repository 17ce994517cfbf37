// Package textutil utilidades de texto para datos enviados a sistemas externos.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents elimina diacríticos ("João Conceição" → "Joao Conceicao") y colapsa espacios.
// El registro del boleto en algunos bancos rechaza caracteres acentuados en el nombre del pagador.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}
