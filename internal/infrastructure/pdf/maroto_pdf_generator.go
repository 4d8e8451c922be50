// Package pdf genera los PDF de presupuestos y facturas.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + NIF        │  Tipo de documento + Fecha   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Email                             │
//	│  CLIENTE: Nombre + NIF + dirección                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Descripción | Cant | P.Unit | Dto | IVA | Importe    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base imponible / IVA / TOTAL                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PIE: condiciones de pago + notas al pie de la empresa       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	mentity "github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
)

var _ appbilling.DocumentPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.DocumentPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// pdfLine fila de la tabla, común a presupuestos y facturas.
type pdfLine struct {
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountFixed   decimal.Decimal
	VATApplicable   bool
	Subtotal        decimal.Decimal
}

// InvoicePDF genera el PDF de una factura.
func (g *MarotoPDFGenerator) InvoicePDF(_ context.Context, company *entity.Company, customer *entity.Customer, inv *entity.Invoice) ([]byte, error) {
	company = orEmpty(company)
	lines := make([]pdfLine, 0, len(inv.Items))
	for _, it := range inv.Items {
		if it.VisibleOnPDF {
			lines = append(lines, toPDFLine(it.Kind, it.LineAmounts))
		}
	}

	m := maroto.New(docConfig("Factura "+inv.Number, company.Name))

	m.AddRows(headerRow(company, "FACTURA", inv.Number, "Fecha: "+inv.IssueDate.Format("02/01/2006")))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(company))
	m.AddRows(clienteRow(customer))
	m.AddRows(invoiceInfoRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(nil, inv.Subtotal, inv.VAT, inv.Total))

	m.AddRows(footerRows(inv.PaymentTerms, inv.Notes, company.InvoiceFooter)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar factura: %w", err)
	}
	return doc.GetBytes(), nil
}

// QuotePDF genera el PDF de un presupuesto.
func (g *MarotoPDFGenerator) QuotePDF(_ context.Context, company *entity.Company, customer *entity.Customer, q *entity.Quote) ([]byte, error) {
	company = orEmpty(company)
	lines := make([]pdfLine, 0, len(q.Items))
	for _, it := range q.Items {
		if it.VisibleOnPDF {
			lines = append(lines, toPDFLine(it.Kind, it.LineAmounts))
		}
	}

	m := maroto.New(docConfig("Presupuesto", company.Name))

	m.AddRows(headerRow(company, "PRESUPUESTO", "Estado: "+q.Status, "Fecha: "+q.CreatedAt.Format("02/01/2006")))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(company))
	m.AddRows(clienteRow(customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(globalDiscountLabel(q), q.Subtotal, q.VAT, q.Total))

	m.AddRows(footerRows("", "", company.QuoteFooter)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar presupuesto: %w", err)
	}
	return doc.GetBytes(), nil
}


func docConfig(title, author string) *mentity.Config {
	return config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(author, true).
		Build()
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: empresa + NIF (izq) y tipo de documento + referencia + fecha (der).
func headerRow(company *entity.Company, kind, reference, date string) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(company.Name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIF: "+nonEmpty(company.NIF, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(kind, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(reference, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New(date, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// emisorRow: datos de la empresa.
func emisorRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Tel: %s   |   Email: %s",
				nonEmpty(address(company.Address, company.PostalCode, company.Province, company.Country), "—"),
				nonEmpty(company.Phone, "—"),
				nonEmpty(company.Email, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// clienteRow: datos del destinatario.
func clienteRow(customer *entity.Customer) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIF: %s   |   %s   |   Email: %s",
				nonEmpty(customer.TaxID, "—"),
				nonEmpty(address(customer.Address, customer.PostalCode, customer.Province, customer.Country), "—"),
				nonEmpty(customer.Email, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// invoiceInfoRow: fechas, forma de pago y régimen fiscal.
func invoiceInfoRow(inv *entity.Invoice) core.Row {
	parts := []string{}
	if inv.OperationDate != nil {
		parts = append(parts, "Fecha de operación: "+inv.OperationDate.Format("02/01/2006"))
	}
	if inv.DueDate != nil {
		parts = append(parts, "Vencimiento: "+inv.DueDate.Format("02/01/2006"))
	}
	parts = append(parts, "Forma de pago: "+inv.PaymentMethod, "Estado: "+inv.PaymentStatus)
	return row.New(12).Add(
		col.New(12).Add(
			text.New(strings.Join(parts, "   |   "), props.Text{Size: 8, Top: 1, Color: colorGray}),
			text.New(inv.FiscalRegime, props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Descripción", 5, align.Left),
		h("Cant.", 1, align.Center),
		h("Precio", 2, align.Right),
		h("Dto.", 1, align.Center),
		h("IVA", 1, align.Center),
		h("Importe", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea visible.
func tableDetailRows(lines []pdfLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		vat := "—"
		if l.VATApplicable {
			vat = formatPercent(pricing.VATRate.Shift(2))
		}
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatQuantity(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatEUR(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(discountLabel(l.DiscountPercent, l.DiscountFixed), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(vat, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatEUR(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha. note se pinta encima si no está vacío.
func totalsRow(note []string, subtotal, vat, total decimal.Decimal) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	notes := col.New(6)
	for i, n := range note {
		notes.Add(text.New(n, props.Text{Size: 8, Color: colorGray, Top: float64(i * 5)}))
	}

	return row.New(22).Add(
		notes,
		col.New(3).Add(
			label("Base imponible:"),
			text.New("IVA:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 12}),
		),
		col.New(3).Add(
			value(formatEUR(subtotal)),
			text.New(formatEUR(vat), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 6}),
			text.New(formatEUR(total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12}),
		),
	)
}

// footerRows: condiciones, notas y pie configurado por la empresa.
func footerRows(paymentTerms, notes, footer string) []core.Row {
	rows := []core.Row{line.NewRow(3)}
	for _, block := range []struct{ title, body string }{
		{"Condiciones de pago", paymentTerms},
		{"Notas", notes},
		{"", footer},
	} {
		if strings.TrimSpace(block.body) == "" {
			continue
		}
		c := col.New(12)
		top := 1.0
		if block.title != "" {
			c.Add(text.New(block.title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: top}))
			top += 5
		}
		c.Add(text.New(block.body, props.Text{Size: 7.5, Color: colorGray, Top: top}))
		rows = append(rows, row.New(top+8).Add(c))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func toPDFLine(kind entity.LineKind, a entity.LineAmounts) pdfLine {
	desc := ""
	if kind != nil {
		desc = kind.Description()
	}
	return pdfLine{
		Description:     desc,
		Quantity:        a.Quantity,
		UnitPrice:       a.UnitPrice,
		DiscountPercent: a.DiscountPercent,
		DiscountFixed:   a.DiscountFixed,
		VATApplicable:   a.VATApplicable,
		Subtotal:        a.Subtotal,
	}
}

func orEmpty(c *entity.Company) *entity.Company {
	if c == nil {
		return &entity.Company{}
	}
	return c
}

// globalDiscountLabel describe el descuento global del presupuesto, si lo hay.
func globalDiscountLabel(q *entity.Quote) []string {
	if q.GlobalDiscountPercent.IsZero() && q.GlobalDiscountFixed.IsZero() {
		return nil
	}
	when := "después de IVA"
	if q.DiscountBeforeVAT {
		when = "antes de IVA"
	}
	return []string{"Descuento global " + discountLabel(q.GlobalDiscountPercent, q.GlobalDiscountFixed) + " (" + when + ")"}
}

func discountLabel(percent, fixed decimal.Decimal) string {
	var parts []string
	if !percent.IsZero() {
		parts = append(parts, formatPercent(percent))
	}
	if !fixed.IsZero() {
		parts = append(parts, formatEUR(fixed))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, " + ")
}

func address(street, postalCode, province, country string) string {
	var parts []string
	for _, p := range []string{street, strings.TrimSpace(postalCode + " " + province), country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
