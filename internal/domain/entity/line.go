package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
)

// LineKind origen de una línea de documento: material del catálogo o tarea manual.
// Solo lo implementan MaterialLine y ManualTask.
type LineKind interface {
	// Description texto que se muestra en respuestas y PDF.
	Description() string
	lineKind()
}

// MaterialLine línea respaldada por un material del usuario.
type MaterialLine struct {
	MaterialID string
	Name       string // nombre resuelto al leer; vacío si el material ya no existe
}

func (m MaterialLine) Description() string { return m.Name }
func (MaterialLine) lineKind()             {}

// ManualTask línea de texto libre.
type ManualTask struct {
	Text string
}

func (m ManualTask) Description() string { return m.Text }
func (ManualTask) lineKind()             {}

// MaterialID devuelve el material de la línea, si lo tiene.
func MaterialID(k LineKind) (string, bool) {
	if m, ok := k.(MaterialLine); ok {
		return m.MaterialID, true
	}
	return "", false
}

// IsManual indica si la línea es una tarea manual.
func IsManual(k LineKind) bool {
	_, ok := k.(ManualTask)
	return ok
}

// LineAmounts importes comunes a las líneas de presupuesto y factura.
type LineAmounts struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountFixed   decimal.Decimal
	VATApplicable   bool
	Subtotal        decimal.Decimal // neto del descuento de la línea, sin IVA
}

// PricingLine datos de cálculo de la línea.
func (a LineAmounts) PricingLine() pricing.Line {
	return pricing.Line{
		Quantity:        a.Quantity,
		UnitPrice:       a.UnitPrice,
		DiscountPercent: a.DiscountPercent,
		DiscountFixed:   a.DiscountFixed,
		VATApplicable:   a.VATApplicable,
	}
}
