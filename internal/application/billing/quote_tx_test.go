package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/memory"
)

var errWriteOutsideTx = errors.New("escritura fuera de transacción")

// readOnlyQuotes repo de presupuestos que solo admite lecturas.
type readOnlyQuotes struct {
	repository.QuoteRepository
}

func (readOnlyQuotes) Create(context.Context, *entity.Quote) error { return errWriteOutsideTx }
func (readOnlyQuotes) Update(context.Context, *entity.Quote) error { return errWriteOutsideTx }

// countingRunner delega en el store y cuenta transacciones; failUpdate simula un
// fallo al reemplazar las líneas dentro de la tx.
type countingRunner struct {
	store      *memory.Store
	calls      int
	failUpdate error
}

func (r *countingRunner) RunBilling(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	seqRepo repository.InvoiceSequenceRepository,
) error) error {
	r.calls++
	return r.store.RunBilling(ctx, func(q repository.QuoteRepository, i repository.InvoiceRepository, s repository.InvoiceSequenceRepository) error {
		if r.failUpdate != nil {
			q = failingQuotes{QuoteRepository: q, err: r.failUpdate}
		}
		return fn(q, i, s)
	})
}

type failingQuotes struct {
	repository.QuoteRepository
	err error
}

func (f failingQuotes) Update(context.Context, *entity.Quote) error { return f.err }

func newTxQuoteUseCase(f *fixture, runner *countingRunner) *billing.QuoteUseCase {
	return billing.NewQuoteUseCase(runner, readOnlyQuotes{f.store.Quotes()}, f.store.Customers(),
		f.store.Materials(), f.store.Companies(), fakePDF{}, f.mailer, nil)
}

func TestQuoteCreateYUpdate_EscribenEnTransaccion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	runner := &countingRunner{store: f.store}
	uc := newTxQuoteUseCase(f, runner)

	q, err := uc.Create(ctx, userID, dto.QuoteRequest{CustomerID: f.customer.ID, Items: scenarioItems()})
	require.NoError(t, err)
	_, err = uc.Update(ctx, userID, q.ID, dto.QuoteRequest{
		CustomerID: f.customer.ID,
		Items:      []dto.LineItemRequest{{MaterialID: f.material.ID, Quantity: dec("2")}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, runner.calls)
	stored, err := f.store.Quotes().GetByID(ctx, q.ID, userID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, dec("30.25").Equal(stored.Total), "total %s", stored.Total)
}

func TestQuoteUpdate_FalloEnTransaccionNoModifica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	runner := &countingRunner{store: f.store}
	uc := newTxQuoteUseCase(f, runner)
	q, err := uc.Create(ctx, userID, dto.QuoteRequest{CustomerID: f.customer.ID, Items: scenarioItems()})
	require.NoError(t, err)

	lineErr := errors.New("insert quote item: violates check constraint")
	runner.failUpdate = lineErr
	_, err = uc.Update(ctx, userID, q.ID, dto.QuoteRequest{
		CustomerID: f.customer.ID,
		Items:      []dto.LineItemRequest{{MaterialID: f.material.ID, Quantity: dec("2")}},
	})
	require.ErrorIs(t, err, lineErr)

	stored, err := f.store.Quotes().GetByID(ctx, q.ID, userID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.True(t, q.Total.Equal(stored.Total))
}
