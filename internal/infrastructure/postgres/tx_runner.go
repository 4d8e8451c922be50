package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/appgestion-api/internal/application/billing"
	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// Ensure TxRunner implements billing.BillingTxRunner and subscription.TxRunner.
var _ billing.BillingTxRunner = (*TxRunner)(nil)
var _ appsub.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// run inicia una transacción, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunBilling transacción con repos de presupuestos, facturas y numeración.
// El bloqueo del contador (SELECT ... FOR UPDATE) se mantiene hasta el Commit.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
	seqRepo repository.InvoiceSequenceRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewQuoteRepository(tx), NewInvoiceRepository(tx), NewSequenceRepository(tx))
	})
}

// RunSubscription transacción para aplicar un webhook y registrar su id.
func (r *TxRunner) RunSubscription(ctx context.Context, fn func(
	userRepo repository.UserRepository,
	eventRepo repository.WebhookEventRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewUserRepository(tx), NewWebhookEventRepository(tx))
	})
}
