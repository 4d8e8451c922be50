package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
)

// Estados de un presupuesto.
const (
	QuoteStatusPending  = "Pendiente"
	QuoteStatusAccepted = "Aceptado"
	QuoteStatusRejected = "Rechazado"
)

// Quote presupuesto. Subtotal, IVA y total se recalculan en cada guardado.
type Quote struct {
	ID                    string
	UserID                string
	CustomerID            string
	Status                string
	VATEnabled            bool
	GlobalDiscountPercent decimal.Decimal
	GlobalDiscountFixed   decimal.Decimal
	DiscountBeforeVAT     bool
	Subtotal              decimal.Decimal
	VAT                   decimal.Decimal
	Total                 decimal.Decimal
	Items                 []QuoteItem
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Datos del cliente resueltos en lectura.
	CustomerName  string
	CustomerEmail string
}

// QuoteItem línea de presupuesto.
type QuoteItem struct {
	ID           string
	QuoteID      string
	Position     int
	Kind         LineKind
	VisibleOnPDF bool
	LineAmounts
}

// Recalculate aplica el motor de precios sobre las líneas y la cabecera.
func (q *Quote) Recalculate() {
	lines := make([]pricing.Line, len(q.Items))
	for i := range q.Items {
		lines[i] = q.Items[i].PricingLine()
	}
	totals := pricing.Quote(lines, q.VATEnabled, pricing.GlobalDiscount{
		Percent:   q.GlobalDiscountPercent,
		Fixed:     q.GlobalDiscountFixed,
		BeforeVAT: q.DiscountBeforeVAT,
	})
	for i := range q.Items {
		q.Items[i].Subtotal = totals.Lines[i]
		q.Items[i].Position = i
	}
	q.Subtotal = totals.Subtotal
	q.VAT = totals.VAT
	q.Total = totals.Total
}
