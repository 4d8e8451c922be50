package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
)

// Valores por defecto de una factura.
const (
	DefaultFiscalRegime  = "Régimen general del IVA"
	DefaultCurrency      = "EUR"
	DefaultPaymentMethod = "Transferencia"
	PaymentStatusUnpaid  = "No Pagada"
	PaymentStatusPaid    = "Pagada"
)

// Invoice factura. El número se asigna al crear y solo cambia si el usuario
// indica explícitamente otro libre.
type Invoice struct {
	ID            string
	UserID        string
	CustomerID    string
	QuoteID       string // vacío si no procede de un presupuesto
	Number        string
	IssueDate     time.Time
	OperationDate *time.Time
	DueDate       *time.Time
	FiscalRegime  string
	PaymentTerms  string
	Currency      string
	PaymentMethod string
	PaymentStatus string
	Notes         string
	VATEnabled    bool
	Subtotal      decimal.Decimal
	VAT           decimal.Decimal
	Total         decimal.Decimal
	Items         []InvoiceItem
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Datos del cliente resueltos en lectura.
	CustomerName  string
	CustomerEmail string
}

// InvoiceItem línea de factura con su cuota de IVA.
type InvoiceItem struct {
	ID           string
	InvoiceID    string
	Position     int
	Kind         LineKind
	VisibleOnPDF bool
	VATShare     decimal.Decimal
	LineAmounts
}

// Recalculate calcula subtotales de línea, totales y reparto de IVA.
func (inv *Invoice) Recalculate() {
	lines := make([]pricing.Line, len(inv.Items))
	for i := range inv.Items {
		lines[i] = inv.Items[i].PricingLine()
	}
	inv.apply(pricing.Invoice(lines, inv.VATEnabled))
}

// RecalculateKeepingSubtotals recalcula totales y cuotas respetando el subtotal
// que ya trae cada línea (líneas copiadas de un presupuesto).
func (inv *Invoice) RecalculateKeepingSubtotals() {
	amounts := make([]pricing.Amount, len(inv.Items))
	for i, it := range inv.Items {
		amounts[i] = pricing.Amount{Subtotal: it.Subtotal, VATApplicable: it.VATApplicable}
	}
	inv.apply(pricing.InvoiceFromAmounts(amounts, inv.VATEnabled))
}

func (inv *Invoice) apply(t pricing.InvoiceTotals) {
	for i := range inv.Items {
		inv.Items[i].Subtotal = t.Lines[i]
		inv.Items[i].VATShare = t.LineVAT[i]
		inv.Items[i].Position = i
	}
	inv.Subtotal = t.Subtotal
	inv.VAT = t.VAT
	inv.Total = t.Total
}
