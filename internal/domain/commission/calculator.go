package commission

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// NormalizeDiscount acepta fracción (0.15) o porcentaje (15) y devuelve porcentaje.
func NormalizeDiscount(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() && d.LessThan(decimal.NewFromInt(1)) {
		return d.Mul(hundred)
	}
	return d
}

// Input parámetros del cálculo de comisión.
type Input struct {
	ConsumptionKWh decimal.Decimal
	Tariff         decimal.Decimal // R$/kWh
	DiscountPct    decimal.Decimal // fracción o porcentaje
	SplitPct       decimal.Decimal // % del consultor
}

// Result desglose del cálculo (redondeado a centavos).
type Result struct {
	Gross      decimal.Decimal
	Savings    decimal.Decimal
	Base       decimal.Decimal
	Commission decimal.Decimal
}

// Calculate bruto = consumo × tarifa; base = bruto − ahorro del descuento; comisión = base × split.
func Calculate(in Input) Result {
	discount := NormalizeDiscount(in.DiscountPct)
	gross := in.ConsumptionKWh.Mul(in.Tariff)
	savings := gross.Mul(discount).Div(hundred)
	base := gross.Sub(savings)
	commission := base.Mul(in.SplitPct).Div(hundred)
	return Result{
		Gross:      gross.Round(2),
		Savings:    savings.Round(2),
		Base:       base.Round(2),
		Commission: commission.Round(2),
	}
}
