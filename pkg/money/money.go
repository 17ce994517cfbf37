// Package money formatea valores monetarios en reales para textos dirigidos al suscriptor.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL devuelve el valor con separadores pt-BR: 1234.5 → "R$ 1.234,50".
func FormatBRL(v decimal.Decimal) string {
	return "R$ " + brPrinter.Sprintf("%.2f", v.Round(2).InexactFloat64())
}
