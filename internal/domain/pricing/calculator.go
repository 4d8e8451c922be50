// Package pricing calcula subtotales, IVA y totales de presupuestos y facturas.
//
// Todas las operaciones son exactas (shopspring/decimal) y no redondean: el
// redondeo a 2 decimales es responsabilidad de la presentación (PDF, email).
package pricing

import "github.com/shopspring/decimal"

// VATRate tipo general de IVA en España (21%).
var VATRate = decimal.RequireFromString("0.21")

var hundred = decimal.NewFromInt(100)

// Line datos de una línea necesarios para el cálculo.
type Line struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal // tiene prioridad sobre DiscountFixed
	DiscountFixed   decimal.Decimal
	VATApplicable   bool
}

// Amount línea ya calculada: subtotal neto de su descuento y si tributa IVA.
type Amount struct {
	Subtotal      decimal.Decimal
	VATApplicable bool
}

// GlobalDiscount descuento a nivel de documento (solo presupuestos).
type GlobalDiscount struct {
	Percent   decimal.Decimal // tiene prioridad sobre Fixed
	Fixed     decimal.Decimal
	BeforeVAT bool
}

// QuoteTotals resultado del cálculo de un presupuesto.
type QuoteTotals struct {
	Lines    []decimal.Decimal // subtotal de cada línea, en el mismo orden
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// InvoiceTotals resultado del cálculo de una factura.
type InvoiceTotals struct {
	Lines    []decimal.Decimal // subtotal de cada línea
	LineVAT  []decimal.Decimal // cuota de IVA asignada a cada línea
	Subtotal decimal.Decimal
	VATBase  decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal cantidad × precio menos el descuento de la línea, nunca negativo.
// El descuento fijo no puede superar el importe bruto.
func LineSubtotal(l Line) decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	discount := decimal.Zero
	switch {
	case l.DiscountPercent.IsPositive():
		discount = gross.Mul(l.DiscountPercent).Div(hundred)
	case l.DiscountFixed.IsPositive():
		discount = decimal.Min(l.DiscountFixed, gross)
	}
	return nonNegative(gross.Sub(discount))
}

// Quote calcula un presupuesto: descuentos por línea, descuento global e IVA.
//
// Con el descuento antes de IVA, subtotal y base imponible se reducen por igual
// (cada uno acotado a cero) y el total es subtotal + IVA. Con el descuento después
// de IVA, el IVA se calcula sobre la base sin descontar, el descuento se aplica una
// sola vez sobre subtotal + IVA y el subtotal guardado es el previo al descuento.
func Quote(lines []Line, vatEnabled bool, g GlobalDiscount) QuoteTotals {
	out := QuoteTotals{Lines: make([]decimal.Decimal, len(lines))}

	subtotal, vatBase := decimal.Zero, decimal.Zero
	for i, l := range lines {
		st := LineSubtotal(l)
		out.Lines[i] = st
		subtotal = subtotal.Add(st)
		if l.VATApplicable {
			vatBase = vatBase.Add(st)
		}
	}

	if g.BeforeVAT {
		subtotal = applyDiscount(subtotal, g.Percent, g.Fixed)
		vatBase = applyDiscount(vatBase, g.Percent, g.Fixed)
		out.Subtotal = subtotal
		out.VAT = vat(vatBase, vatEnabled)
		out.Total = subtotal.Add(out.VAT)
		return out
	}

	out.Subtotal = subtotal
	out.VAT = vat(vatBase, vatEnabled)
	out.Total = applyDiscount(subtotal.Add(out.VAT), g.Percent, g.Fixed)
	return out
}

// Invoice calcula una factura a partir de sus líneas (sin descuento global).
func Invoice(lines []Line, vatEnabled bool) InvoiceTotals {
	amounts := make([]Amount, len(lines))
	for i, l := range lines {
		amounts[i] = Amount{Subtotal: LineSubtotal(l), VATApplicable: l.VATApplicable}
	}
	return InvoiceFromAmounts(amounts, vatEnabled)
}

// InvoiceFromAmounts calcula una factura cuyas líneas ya traen su subtotal
// (por ejemplo, copiadas de un presupuesto) y reparte el IVA entre ellas.
//
// Cada línea con IVA recibe subtotal × IVA / base; la última absorbe el resto
// para que la suma de cuotas coincida exactamente con el IVA del documento.
func InvoiceFromAmounts(amounts []Amount, vatEnabled bool) InvoiceTotals {
	out := InvoiceTotals{
		Lines:   make([]decimal.Decimal, len(amounts)),
		LineVAT: make([]decimal.Decimal, len(amounts)),
	}

	last := -1
	for i, a := range amounts {
		st := nonNegative(a.Subtotal)
		out.Lines[i] = st
		out.LineVAT[i] = decimal.Zero
		out.Subtotal = out.Subtotal.Add(st)
		if a.VATApplicable {
			out.VATBase = out.VATBase.Add(st)
			last = i
		}
	}
	out.VAT = vat(out.VATBase, vatEnabled)
	out.Total = out.Subtotal.Add(out.VAT)

	if !vatEnabled || !out.VATBase.IsPositive() {
		return out
	}

	allocated := decimal.Zero
	for i, a := range amounts {
		if !a.VATApplicable {
			continue
		}
		if i == last {
			out.LineVAT[i] = out.VAT.Sub(allocated)
			break
		}
		share := out.Lines[i].Mul(out.VAT).Div(out.VATBase)
		out.LineVAT[i] = share
		allocated = allocated.Add(share)
	}
	return out
}

func vat(base decimal.Decimal, enabled bool) decimal.Decimal {
	if !enabled {
		return decimal.Zero
	}
	return base.Mul(VATRate)
}

// applyDiscount porcentaje si es positivo, si no importe fijo; acotado a cero.
func applyDiscount(amount, percent, fixed decimal.Decimal) decimal.Decimal {
	switch {
	case percent.IsPositive():
		amount = amount.Mul(hundred.Sub(percent)).Div(hundred)
	case fixed.IsPositive():
		amount = amount.Sub(fixed)
	}
	return nonNegative(amount)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
