package pricing_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "esperado %s, obtenido %s %v", want, got.String(), msg)
}

// dos líneas: 10 × 5 sin descuento y 1 × 20 con 10% de descuento, ambas con IVA.
func sampleLines() []pricing.Line {
	return []pricing.Line{
		{Quantity: d("10"), UnitPrice: d("5"), VATApplicable: true},
		{Quantity: d("1"), UnitPrice: d("20"), DiscountPercent: d("10"), VATApplicable: true},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Líneas
// ──────────────────────────────────────────────────────────────────────────────

func TestLineSubtotal_Descuentos(t *testing.T) {
	assertDec(t, "18", pricing.LineSubtotal(pricing.Line{Quantity: d("1"), UnitPrice: d("20"), DiscountPercent: d("10")}))
	assertDec(t, "15", pricing.LineSubtotal(pricing.Line{Quantity: d("1"), UnitPrice: d("20"), DiscountFixed: d("5")}))
	assertDec(t, "18", pricing.LineSubtotal(pricing.Line{
		Quantity: d("1"), UnitPrice: d("20"), DiscountPercent: d("10"), DiscountFixed: d("5"),
	}), "el porcentaje tiene prioridad sobre el fijo")
}

func TestLineSubtotal_NuncaNegativo(t *testing.T) {
	assertDec(t, "0", pricing.LineSubtotal(pricing.Line{Quantity: d("1"), UnitPrice: d("5"), DiscountFixed: d("10")}))
	assertDec(t, "0", pricing.LineSubtotal(pricing.Line{Quantity: d("2"), UnitPrice: d("5"), DiscountPercent: d("150")}))

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		l := pricing.Line{
			Quantity:        decimal.NewFromInt(int64(r.Intn(20) + 1)),
			UnitPrice:       decimal.NewFromFloat(r.Float64() * 100).Round(2),
			DiscountPercent: decimal.NewFromInt(int64(r.Intn(3) * r.Intn(200))),
			DiscountFixed:   decimal.NewFromFloat(r.Float64() * 3000).Round(2),
		}
		assert.False(t, pricing.LineSubtotal(l).IsNegative(), "línea %d: %+v", i, l)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Presupuestos
// ──────────────────────────────────────────────────────────────────────────────

func TestQuote_SinDescuentoGlobal(t *testing.T) {
	got := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{BeforeVAT: true})

	require.Len(t, got.Lines, 2)
	assertDec(t, "50", got.Lines[0])
	assertDec(t, "18", got.Lines[1])
	assertDec(t, "68.00", got.Subtotal)
	assertDec(t, "14.28", got.VAT)
	assertDec(t, "82.28", got.Total)
}

func TestQuote_DescuentoPorcentajeAntesDeIVA(t *testing.T) {
	got := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{Percent: d("10"), BeforeVAT: true})

	assertDec(t, "61.20", got.Subtotal)
	assertDec(t, "12.852", got.VAT)
	assertDec(t, "74.052", got.Total)
}

func TestQuote_DescuentoFijo_AntesYDespuesDeIVA(t *testing.T) {
	before := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{Fixed: d("10"), BeforeVAT: true})
	after := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{Fixed: d("10"), BeforeVAT: false})

	assertDec(t, "58", before.Subtotal)
	assertDec(t, "12.18", before.VAT)
	assertDec(t, "70.18", before.Total)
	assert.True(t, before.Total.Equal(before.Subtotal.Add(before.VAT)), "antes de IVA: total = subtotal + IVA")

	assertDec(t, "68", after.Subtotal, "después de IVA el subtotal no se reduce")
	assertDec(t, "14.28", after.VAT, "después de IVA el IVA se calcula sin descuento")
	assertDec(t, "72.28", after.Total)

	assert.False(t, before.Total.Equal(after.Total), "los dos modos producen totales distintos")
}

func TestQuote_DescuentoDespuesDeIVA_NoNegativo(t *testing.T) {
	got := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{Fixed: d("1000")})
	assertDec(t, "0", got.Total)
}

func TestQuote_DescuentoFijoMayorQueSubtotal_AcotaACero(t *testing.T) {
	got := pricing.Quote(sampleLines(), true, pricing.GlobalDiscount{Fixed: d("100"), BeforeVAT: true})

	assertDec(t, "0", got.Subtotal)
	assertDec(t, "0", got.VAT)
	assertDec(t, "0", got.Total)
}

func TestQuote_IVADeshabilitado(t *testing.T) {
	got := pricing.Quote(sampleLines(), false, pricing.GlobalDiscount{BeforeVAT: true})

	assertDec(t, "0", got.VAT, "sin IVA habilitado no hay cuota aunque las líneas tributen")
	assertDec(t, "68", got.Total)
}

func TestQuote_SoloLineasConIVAFormanLaBase(t *testing.T) {
	lines := []pricing.Line{
		{Quantity: d("1"), UnitPrice: d("100"), VATApplicable: true},
		{Quantity: d("1"), UnitPrice: d("50"), VATApplicable: false},
	}
	got := pricing.Quote(lines, true, pricing.GlobalDiscount{BeforeVAT: true})

	assertDec(t, "150", got.Subtotal)
	assertDec(t, "21", got.VAT)
	assertDec(t, "171", got.Total)
}

func TestQuote_NingunaLineaConIVA_RespetaElIndicador(t *testing.T) {
	lines := []pricing.Line{{Quantity: d("2"), UnitPrice: d("10")}}
	got := pricing.Quote(lines, true, pricing.GlobalDiscount{BeforeVAT: true})

	assertDec(t, "0", got.VAT)
	assertDec(t, "20", got.Total)
}

// ──────────────────────────────────────────────────────────────────────────────
// Facturas
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoice_RepartoDeIVA(t *testing.T) {
	lines := []pricing.Line{
		{Quantity: d("1"), UnitPrice: d("33.33"), VATApplicable: true},
		{Quantity: d("1"), UnitPrice: d("40"), VATApplicable: false},
		{Quantity: d("1"), UnitPrice: d("33.33"), VATApplicable: true},
		{Quantity: d("1"), UnitPrice: d("33.34"), VATApplicable: true},
	}
	got := pricing.Invoice(lines, true)

	assertDec(t, "140", got.Subtotal)
	assertDec(t, "100", got.VATBase)
	assertDec(t, "21", got.VAT)
	assertDec(t, "161", got.Total)

	assertDec(t, "6.9993", got.LineVAT[0])
	assertDec(t, "0", got.LineVAT[1], "una línea sin IVA no recibe cuota")
	assertDec(t, "6.9993", got.LineVAT[2])
	assertDec(t, "7.0014", got.LineVAT[3])
}

func TestInvoice_SumaDeCuotasIgualAlIVA(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := r.Intn(8) + 1
		amounts := make([]pricing.Amount, n)
		for i := range amounts {
			amounts[i] = pricing.Amount{
				Subtotal:      decimal.NewFromFloat(r.Float64() * 1000).Round(2),
				VATApplicable: r.Intn(3) > 0,
			}
		}
		got := pricing.InvoiceFromAmounts(amounts, true)

		sum := decimal.Zero
		for _, v := range got.LineVAT {
			sum = sum.Add(v)
		}
		assert.True(t, sum.Equal(got.VAT), "ronda %d: suma %s != IVA %s", round, sum, got.VAT)
	}
}

func TestInvoice_IVADeshabilitado_CuotasACero(t *testing.T) {
	got := pricing.Invoice(sampleLines(), false)

	assertDec(t, "0", got.VAT)
	for _, v := range got.LineVAT {
		assertDec(t, "0", v)
	}
	assertDec(t, "68", got.Total)
}

func TestInvoiceFromAmounts_RespetaSubtotalesCopiados(t *testing.T) {
	got := pricing.InvoiceFromAmounts([]pricing.Amount{
		{Subtotal: d("18"), VATApplicable: true},
		{Subtotal: d("50"), VATApplicable: true},
	}, true)

	assertDec(t, "18", got.Lines[0])
	assertDec(t, "68", got.Subtotal)
	assertDec(t, "82.28", got.Total)
}
