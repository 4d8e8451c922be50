package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/pdf"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleItems() []entity.LineAmounts {
	return []entity.LineAmounts{
		{Quantity: dec("10"), UnitPrice: dec("5"), Subtotal: dec("50"), VATApplicable: true},
		{Quantity: dec("1"), UnitPrice: dec("20"), DiscountPercent: dec("10"), Subtotal: dec("18"), VATApplicable: true},
	}
}

func TestInvoicePDF(t *testing.T) {
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	amounts := sampleItems()
	inv := &entity.Invoice{
		Number:        "FAC-2026-0001",
		IssueDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       &due,
		FiscalRegime:  entity.DefaultFiscalRegime,
		PaymentMethod: entity.DefaultPaymentMethod,
		PaymentStatus: entity.PaymentStatusUnpaid,
		PaymentTerms:  "30 días",
		VATEnabled:    true,
		Subtotal:      dec("68"),
		VAT:           dec("14.28"),
		Total:         dec("82.28"),
		Items: []entity.InvoiceItem{
			{Kind: entity.MaterialLine{MaterialID: "m1", Name: "Azulejo"}, VisibleOnPDF: true, LineAmounts: amounts[0]},
			{Kind: entity.ManualTask{Text: "Mano de obra"}, VisibleOnPDF: false, LineAmounts: amounts[1]},
		},
	}
	company := &entity.Company{Name: "Reformas Sur", NIF: "B12345674", InvoiceFooter: "Inscrita en el Registro Mercantil"}
	customer := &entity.Customer{Name: "Ana", PostalCode: "28001", Province: "Madrid", Country: "España"}

	out, err := pdf.NewMarotoPDFGenerator().InvoicePDF(context.Background(), company, customer, inv)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestQuotePDF_SinEmpresa(t *testing.T) {
	amounts := sampleItems()
	q := &entity.Quote{
		Status:                entity.QuoteStatusPending,
		VATEnabled:            true,
		GlobalDiscountPercent: dec("10"),
		DiscountBeforeVAT:     true,
		Subtotal:              dec("61.2"),
		VAT:                   dec("12.852"),
		Total:                 dec("74.052"),
		CreatedAt:             time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []entity.QuoteItem{
			{Kind: entity.ManualTask{Text: "Alicatado"}, VisibleOnPDF: true, LineAmounts: amounts[0]},
			{Kind: entity.ManualTask{Text: "Material"}, VisibleOnPDF: true, LineAmounts: amounts[1]},
		},
	}

	out, err := pdf.NewMarotoPDFGenerator().QuotePDF(context.Background(), nil, &entity.Customer{Name: "Ana"}, q)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
