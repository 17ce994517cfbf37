package entity

// CoverageKind variante de ChargeCoverage.
type CoverageKind string

const (
	CoverageUncharged          CoverageKind = "uncharged"
	CoverageDirectCharge       CoverageKind = "direct_charge"
	CoverageConsolidatedMember CoverageKind = "consolidated_member"
)

// ChargeCoverage unión etiquetada: una factura está sin cobro, con cobro propio
// o cubierta por un consolidado activo (pending/paid). Nunca ambas cosas.
type ChargeCoverage struct {
	Kind             CoverageKind
	GatewayPaymentID string // solo DirectCharge
	ConsolidatedID   string // solo ConsolidatedMember
}

// Uncharged factura sin cobro.
func Uncharged() ChargeCoverage {
	return ChargeCoverage{Kind: CoverageUncharged}
}

// DirectCharge factura con cobro individual.
func DirectCharge(gatewayPaymentID string) ChargeCoverage {
	return ChargeCoverage{Kind: CoverageDirectCharge, GatewayPaymentID: gatewayPaymentID}
}

// ConsolidatedMember factura cubierta por un consolidado.
func ConsolidatedMember(consolidatedID string) ChargeCoverage {
	return ChargeCoverage{Kind: CoverageConsolidatedMember, ConsolidatedID: consolidatedID}
}

// IsCharged true salvo Uncharged.
func (c ChargeCoverage) IsCharged() bool {
	return c.Kind != CoverageUncharged && c.Kind != ""
}
