package facturae_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/facturae"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() (*entity.Company, *entity.Customer, *entity.Invoice) {
	company := &entity.Company{Name: "Reformas Sur SL", NIF: "B12345674", Address: "C/ Feria 1", PostalCode: "41001", Province: "Sevilla", Country: "España"}
	customer := &entity.Customer{Name: "Ana López García", TaxID: "12345678Z", PostalCode: "28001", Province: "Madrid", Country: "España"}
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{
		Number:        "FAC-2026-0007",
		IssueDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		Currency:      "EUR",
		FiscalRegime:  entity.DefaultFiscalRegime,
		PaymentMethod: entity.DefaultPaymentMethod,
		VATEnabled:    true,
		Subtotal:      dec("78"),
		VAT:           dec("14.28"),
		Total:         dec("92.28"),
		Items: []entity.InvoiceItem{
			{Kind: entity.MaterialLine{MaterialID: "m1", Name: "Azulejo"}, VATShare: dec("10.5"),
				LineAmounts: entity.LineAmounts{Quantity: dec("10"), UnitPrice: dec("5"), Subtotal: dec("50"), VATApplicable: true}},
			{Kind: entity.ManualTask{Text: "Mano de obra"}, VATShare: dec("3.78"),
				LineAmounts: entity.LineAmounts{Quantity: dec("1"), UnitPrice: dec("20"), DiscountPercent: dec("10"), Subtotal: dec("18"), VATApplicable: true}},
			{Kind: entity.ManualTask{Text: "Tasa"}, VATShare: decimal.Zero,
				LineAmounts: entity.LineAmounts{Quantity: dec("1"), UnitPrice: dec("10"), Subtotal: dec("10"), VATApplicable: false}},
		},
	}
	return company, customer, inv
}

func TestExport_Estructura(t *testing.T) {
	out, digest, err := facturae.NewExporter().Export(sample())
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Facturae", root.Tag)

	assert.Equal(t, "3.2.2", root.FindElement("FileHeader/SchemaVersion").Text())
	assert.Equal(t, "92.28", root.FindElement("FileHeader/Batch/TotalInvoicesAmount/TotalAmount").Text())

	seller := root.FindElement("Parties/SellerParty")
	assert.Equal(t, "J", seller.FindElement("TaxIdentification/PersonTypeCode").Text())
	assert.Equal(t, "Reformas Sur SL", seller.FindElement("LegalEntity/CorporateName").Text())
	buyer := root.FindElement("Parties/BuyerParty")
	assert.Equal(t, "F", buyer.FindElement("TaxIdentification/PersonTypeCode").Text())
	assert.Equal(t, "Ana", buyer.FindElement("Individual/Name").Text())
	assert.Equal(t, "ESP", buyer.FindElement("Individual/AddressInSpain/CountryCode").Text())

	inv := root.FindElement("Invoices/Invoice")
	assert.Equal(t, "0007", inv.FindElement("InvoiceHeader/InvoiceNumber").Text())
	assert.Equal(t, "FAC-2026", inv.FindElement("InvoiceHeader/InvoiceSeriesCode").Text())
	assert.Equal(t, "2026-03-10", inv.FindElement("InvoiceIssueData/IssueDate").Text())

	taxes := inv.FindElements("TaxesOutputs/Tax")
	require.Len(t, taxes, 2)
	assert.Equal(t, "21.00", taxes[0].FindElement("TaxRate").Text())
	assert.Equal(t, "68.00", taxes[0].FindElement("TaxableBase/TotalAmount").Text())
	assert.Equal(t, "14.28", taxes[0].FindElement("TaxAmount/TotalAmount").Text())
	assert.Equal(t, "0.00", taxes[1].FindElement("TaxRate").Text())
	assert.Equal(t, "10.00", taxes[1].FindElement("TaxableBase/TotalAmount").Text())

	lines := inv.FindElements("Items/InvoiceLine")
	require.Len(t, lines, 3)
	assert.Equal(t, "2.000000", lines[1].FindElement("DiscountsAndRebates/Discount/DiscountAmount").Text())
	assert.Nil(t, lines[0].FindElement("DiscountsAndRebates"))

	assert.Equal(t, "2026-04-10", inv.FindElement("PaymentDetails/Installment/InstallmentDueDate").Text())
	assert.Equal(t, "04", inv.FindElement("PaymentDetails/Installment/PaymentMeans").Text())
}

func TestExport_HuellaEstable(t *testing.T) {
	_, d1, err := facturae.NewExporter().Export(sample())
	require.NoError(t, err)
	_, d2, err := facturae.NewExporter().Export(sample())
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	company, customer, inv := sample()
	inv.Total = dec("92.29")
	_, d3, err := facturae.NewExporter().Export(company, customer, inv)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestDigest_IgnoraDeclaracion(t *testing.T) {
	a, err := facturae.Digest([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<a b="1"><c>x</c></a>`))
	require.NoError(t, err)
	b, err := facturae.Digest([]byte(`<a b="1"><c>x</c></a>`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// espacios dentro de la etiqueta: misma forma canónica
	c, err := facturae.Digest([]byte(`<a  b="1" ><c>x</c></a>`))
	require.NoError(t, err)
	assert.Equal(t, b, c)
}

func TestExport_SinEmpresa(t *testing.T) {
	_, customer, inv := sample()
	_, _, err := facturae.NewExporter().Export(nil, customer, inv)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "faltan"))
}
