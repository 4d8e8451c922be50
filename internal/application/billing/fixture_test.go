package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/memory"
)

const userID = "u-1"

var fixedNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

type fakePDF struct{}

func (fakePDF) InvoicePDF(_ context.Context, _ *entity.Company, _ *entity.Customer, inv *entity.Invoice) ([]byte, error) {
	return []byte("%PDF factura " + inv.Number), nil
}

func (fakePDF) QuotePDF(_ context.Context, _ *entity.Company, _ *entity.Customer, q *entity.Quote) ([]byte, error) {
	return []byte("%PDF presupuesto " + q.ID), nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []billing.Mail
	acct []entity.MailSettings
}

func (m *fakeMailer) Send(_ context.Context, account entity.MailSettings, msg billing.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	m.acct = append(m.acct, account)
	return nil
}

type fakeFacturae struct{}

func (fakeFacturae) Export(_ *entity.Company, _ *entity.Customer, inv *entity.Invoice) ([]byte, string, error) {
	return []byte("<Facturae>" + inv.Number + "</Facturae>"), "abc123", nil
}

type fixture struct {
	store    *memory.Store
	mailer   *fakeMailer
	quotes   *billing.QuoteUseCase
	invoices *billing.InvoiceUseCase
	customer *entity.Customer
	material *entity.Material
}

// newFixture usuario con empresa y cliente completos para facturar.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.Companies().Upsert(ctx, &entity.Company{
		UserID: userID, Name: "Reformas Sur", PostalCode: "41001", Province: "Sevilla",
		Country: "España", NIF: "B12345674",
		Mail: entity.MailSettings{Username: "facturas@reformassur.es", Password: "secreto"},
	}))
	customer := &entity.Customer{
		ID: "3f1d5c9a-6b2e-4f7a-9c1d-2e8b7a6f5d40", UserID: userID, Name: "Ana", Email: "ana@example.com",
		PostalCode: "28001", Province: "Madrid", Country: "España", TaxID: "12345678Z",
	}
	require.NoError(t, store.Customers().Create(ctx, customer))
	material := &entity.Material{ID: "7a2c4e6f-8b1d-4c3e-9f5a-1b2c3d4e5f60", UserID: userID, Name: "Azulejo", UnitOfMeasure: "m2", UnitPrice: dec("12.50")}
	require.NoError(t, store.Materials().Create(ctx, material))

	mailer := &fakeMailer{}
	quotes := billing.NewQuoteUseCase(store, store.Quotes(), store.Customers(), store.Materials(), store.Companies(), fakePDF{}, mailer, nil)
	invoices := billing.NewInvoiceUseCase(billing.InvoiceDeps{
		TxRunner:     store,
		InvoiceRepo:  store.Invoices(),
		QuoteRepo:    store.Quotes(),
		CustomerRepo: store.Customers(),
		MaterialRepo: store.Materials(),
		CompanyRepo:  store.Companies(),
		PDF:          fakePDF{},
		Mailer:       mailer,
		Facturae:     fakeFacturae{},
	}).WithClock(func() time.Time { return fixedNow })

	return &fixture{store: store, mailer: mailer, quotes: quotes, invoices: invoices, customer: customer, material: material}
}

// scenarioItems 10 × 5 con IVA + 1 × 20 con 10 % de descuento y IVA.
func scenarioItems() []dto.LineItemRequest {
	return []dto.LineItemRequest{
		{ManualTask: "Mano de obra", Quantity: dec("10"), UnitPrice: dec("5")},
		{ManualTask: "Desplazamiento", Quantity: dec("1"), UnitPrice: dec("20"), DiscountPercent: dec("10")},
	}
}
