package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validCompany() *entity.Company {
	return &entity.Company{Name: "Reformas Sur", PostalCode: "41001", Province: "Sevilla", Country: "España", NIF: "B12345674"}
}

func validCustomer() *entity.Customer {
	return &entity.Customer{Name: "Ana", PostalCode: "28001", Province: "Madrid", Country: "España", TaxID: "12345678Z"}
}

func TestValidateForInvoicing_OK(t *testing.T) {
	assert.NoError(t, entity.ValidateForInvoicing(validCompany(), validCustomer()))
}

func TestValidateForInvoicing_Errores(t *testing.T) {
	assert.ErrorContains(t, entity.ValidateForInvoicing(nil, validCustomer()), "datos de la empresa")

	c := validCompany()
	c.Province = " "
	assert.ErrorContains(t, entity.ValidateForInvoicing(c, validCustomer()), "provincia de la empresa")

	c = validCompany()
	c.NIF = "B12345675"
	assert.ErrorContains(t, entity.ValidateForInvoicing(c, validCustomer()), "NIF de la empresa")

	cu := validCustomer()
	cu.PostalCode = ""
	assert.ErrorContains(t, entity.ValidateForInvoicing(validCompany(), cu), "código postal del cliente")

	cu = validCustomer()
	cu.TaxID = ""
	assert.NoError(t, entity.ValidateForInvoicing(validCompany(), cu), "el NIF del cliente es opcional")
}

func TestLineKind(t *testing.T) {
	var k entity.LineKind = entity.MaterialLine{MaterialID: "m1", Name: "Azulejo"}
	id, ok := entity.MaterialID(k)
	require.True(t, ok)
	assert.Equal(t, "m1", id)
	assert.Equal(t, "Azulejo", k.Description())
	assert.False(t, entity.IsManual(k))

	k = entity.ManualTask{Text: "Mano de obra"}
	_, ok = entity.MaterialID(k)
	assert.False(t, ok)
	assert.True(t, entity.IsManual(k))
	assert.Equal(t, "Mano de obra", k.Description())
}

func TestQuote_Recalculate(t *testing.T) {
	q := entity.Quote{
		VATEnabled:        true,
		DiscountBeforeVAT: true,
		Items: []entity.QuoteItem{
			{Kind: entity.ManualTask{Text: "a"}, LineAmounts: entity.LineAmounts{Quantity: dec("10"), UnitPrice: dec("5"), VATApplicable: true}},
			{Kind: entity.ManualTask{Text: "b"}, LineAmounts: entity.LineAmounts{Quantity: dec("1"), UnitPrice: dec("20"), DiscountPercent: dec("10"), VATApplicable: true}},
		},
	}
	q.Recalculate()

	assert.True(t, dec("18").Equal(q.Items[1].Subtotal))
	assert.Equal(t, 1, q.Items[1].Position)
	assert.True(t, dec("82.28").Equal(q.Total))
}

func TestInvoice_RecalculateKeepingSubtotals(t *testing.T) {
	inv := entity.Invoice{
		VATEnabled: true,
		Items: []entity.InvoiceItem{
			// el subtotal copiado del presupuesto ya incluye un descuento
			{Kind: entity.ManualTask{Text: "a"}, LineAmounts: entity.LineAmounts{Quantity: dec("1"), UnitPrice: dec("20"), Subtotal: dec("18"), VATApplicable: true}},
			{Kind: entity.ManualTask{Text: "b"}, LineAmounts: entity.LineAmounts{Quantity: dec("1"), UnitPrice: dec("10"), Subtotal: dec("10"), VATApplicable: false}},
		},
	}
	inv.RecalculateKeepingSubtotals()

	assert.True(t, dec("28").Equal(inv.Subtotal))
	assert.True(t, dec("3.78").Equal(inv.VAT))
	assert.True(t, dec("3.78").Equal(inv.Items[0].VATShare))
	assert.True(t, inv.Items[1].VATShare.IsZero())
	assert.True(t, dec("31.78").Equal(inv.Total))
}
