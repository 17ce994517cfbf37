// Package pdf genera el extracto de un cobro consolidado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Suscriptor + CPF/CNPJ │ Vencimiento + Total        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DIRECCIÓN DE COBRO                                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Período | Unidad | kWh | Vencimiento | Valor         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL CONSOLIDADO                                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del boleto + id del cobro                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbilling "github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/pkg/document"
	"github.com/jhoicas/Cobranca-api/pkg/money"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 102, Blue: 68}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateFormat = "02/01/2006"

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.StatementPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

var _ appbilling.StatementPDFGenerator = (*MarotoPDFGenerator)(nil)

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateConsolidatedPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateConsolidatedPDF(
	_ context.Context,
	consolidated *entity.ConsolidatedInvoice,
	subscriber *entity.Subscriber,
	members []*entity.Invoice,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Fatura consolidada", true).
		WithAuthor(subscriber.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(consolidated, subscriber))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(addressRow(subscriber))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(members) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(consolidated, len(members)))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(consolidated) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: suscriptor + documento (izq) y vencimiento + total (der).
func headerRow(c *entity.ConsolidatedInvoice, sub *entity.Subscriber) core.Row {
	docLabel := nonEmpty(document.Kind(sub.Document), "Documento")
	return row.New(18).Add(
		col.New(7).Add(
			text.New(sub.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(docLabel+": "+sub.Document, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FATURA CONSOLIDADA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(money.FormatBRL(c.TotalValue), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Vencimento: "+c.DueDate.Format(dateFormat), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// addressRow: dirección de cobro del suscriptor.
func addressRow(sub *entity.Subscriber) core.Row {
	a := sub.Address
	return row.New(12).Add(
		col.New(12).Add(
			text.New("ENDEREÇO DE COBRANÇA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s, %s %s - %s - %s/%s - CEP %s",
				nonEmpty(a.Street, "—"),
				nonEmpty(a.Number, "s/n"),
				a.Complement,
				nonEmpty(a.District, "—"),
				nonEmpty(a.City, "—"),
				nonEmpty(a.State, "—"),
				nonEmpty(a.PostalCode, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de faturas incluidas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Período", 2, align.Center),
		h("Unidade consumidora", 4, align.Left),
		h("Consumo (kWh)", 2, align.Right),
		h("Vencimento", 2, align.Center),
		h("Valor", 2, align.Right),
	)
}

// tableDetailRows: una fila por factura miembro.
func tableDetailRows(members []*entity.Invoice) []core.Row {
	result := make([]core.Row, 0, len(members))
	for _, inv := range members {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				inv.Period,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(4).Add(text.New(
				nonEmpty(inv.ConsumerUnitID, "—"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				inv.ConsumptionKWh.StringFixed(0),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				inv.DueDate.Format(dateFormat),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				money.FormatBRL(inv.AmountDue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: total congelado al emitir. Puede diferir de la suma actual si una factura cambió después.
func totalsRow(c *entity.ConsolidatedInvoice, count int) core.Row {
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			text.New(fmt.Sprintf("Faturas incluídas: %d", count), props.Text{
				Size: 9, Align: align.Right, Right: 2,
			}),
			text.New("TOTAL A PAGAR:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Right: 2, Top: 6,
			}),
		),
		col.New(3).Add(
			text.New(money.FormatBRL(c.TotalValue), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Right: 1, Top: 6,
			}),
		),
	)
}

// footerRows: QR con la URL del boleto e identificador del cobro.
func footerRows(c *entity.ConsolidatedInvoice) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("PAGAMENTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	if c.GatewayPaymentID != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Cobrança: "+c.GatewayPaymentID, props.Text{Size: 7, Top: 1, Color: colorGray}),
		)))
	}
	if c.BoletoURL == "" {
		return rows
	}

	rows = append(rows, row.New(45).Add(
		col.New(4).Add(code.NewQr(c.BoletoURL, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escaneie o código para abrir o boleto.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
		),
	))
	for _, chunk := range splitEvery(c.BoletoURL, 90) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
