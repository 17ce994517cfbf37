// Package document normaliza y valida documentos fiscales brasileños (CPF y CNPJ).
package document

import (
	"fmt"
	"unicode"
)

// Tipos de documento.
const (
	KindCPF  = "CPF"
	KindCNPJ = "CNPJ"
)

var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Digits devuelve solo los dígitos del documento: "529.982.247-25" → "52998224725".
func Digits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// Kind clasifica por longitud (11 = CPF, 14 = CNPJ). Vacío si no encaja.
func Kind(s string) string {
	switch len(Digits(s)) {
	case 11:
		return KindCPF
	case 14:
		return KindCNPJ
	}
	return ""
}

// Validate verifica longitud y dígitos verificadores (módulo 11).
func Validate(s string) error {
	d := Digits(s)
	switch len(d) {
	case 11:
		return validateCPF(d)
	case 14:
		return validateCNPJ(d)
	case 0:
		return fmt.Errorf("document: vacío")
	}
	return fmt.Errorf("document: se esperaban 11 (CPF) o 14 (CNPJ) dígitos, se recibieron %d", len(d))
}

func validateCPF(d string) error {
	if repeated(d) {
		return fmt.Errorf("document: CPF con dígitos repetidos")
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		dv := sum * 10 % 11
		if dv == 10 {
			dv = 0
		}
		if int(d[n]-'0') != dv {
			return fmt.Errorf("document: dígito verificador del CPF inválido")
		}
	}
	return nil
}

func validateCNPJ(d string) error {
	if repeated(d) {
		return fmt.Errorf("document: CNPJ con dígitos repetidos")
	}
	if int(d[12]-'0') != cnpjDigit(d, cnpjWeights1[:]) || int(d[13]-'0') != cnpjDigit(d, cnpjWeights2[:]) {
		return fmt.Errorf("document: dígito verificador del CNPJ inválido")
	}
	return nil
}

func cnpjDigit(d string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(d[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

func repeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
