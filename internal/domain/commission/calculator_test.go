package commission_test

import (
	"testing"

	"github.com/jhoicas/Cobranca-api/internal/domain/commission"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNormalizeDiscount(t *testing.T) {
	assert.True(t, dec("15").Equal(commission.NormalizeDiscount(dec("0.15"))))
	assert.True(t, dec("15").Equal(commission.NormalizeDiscount(dec("15"))))
	assert.True(t, dec("0").Equal(commission.NormalizeDiscount(dec("0"))))
	// 1 ya es porcentaje (1 %), no 100 %.
	assert.True(t, dec("1").Equal(commission.NormalizeDiscount(dec("1"))))
}

func TestCalculate_FractionEqualsPercentage(t *testing.T) {
	base := commission.Input{
		ConsumptionKWh: dec("1000"),
		Tariff:         dec("0.85"),
		SplitPct:       dec("10"),
	}
	asFraction := base
	asFraction.DiscountPct = dec("0.15")
	asPercent := base
	asPercent.DiscountPct = dec("15")

	r1 := commission.Calculate(asFraction)
	r2 := commission.Calculate(asPercent)

	// 1000 × 0.85 = 850; ahorro 127.50; base 722.50; comisión 72.25
	assert.Equal(t, "850", r1.Gross.String())
	assert.Equal(t, "127.5", r1.Savings.String())
	assert.Equal(t, "722.5", r1.Base.String())
	assert.Equal(t, "72.25", r1.Commission.String())
	assert.True(t, r1.Commission.Equal(r2.Commission))
}

func TestCalculate_ZeroSplit(t *testing.T) {
	r := commission.Calculate(commission.Input{
		ConsumptionKWh: dec("500"),
		Tariff:         dec("0.9"),
		DiscountPct:    dec("20"),
	})
	assert.True(t, r.Commission.IsZero())
}
