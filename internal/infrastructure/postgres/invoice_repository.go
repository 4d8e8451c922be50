package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceSelect = `
	SELECT i.id, i.user_id, i.customer_id, i.quote_id, i.number, i.issue_date, i.operation_date, i.due_date,
		i.fiscal_regime, COALESCE(i.payment_terms, ''), i.currency, i.payment_method, i.payment_status,
		COALESCE(i.notes, ''), i.vat_enabled, i.subtotal, i.vat, i.total, i.created_at, i.updated_at,
		c.name, COALESCE(c.email, '')
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id`

// Create persiste cabecera y líneas. El número duplicado devuelve domain.ErrNumberConflict.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, user_id, customer_id, quote_id, number, issue_date, operation_date, due_date,
			fiscal_regime, payment_terms, currency, payment_method, payment_status, notes, vat_enabled,
			subtotal, vat, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.UserID, invoice.CustomerID, nullIfEmpty(invoice.QuoteID), invoice.Number,
		invoice.IssueDate, invoice.OperationDate, invoice.DueDate,
		invoice.FiscalRegime, nullIfEmpty(invoice.PaymentTerms), invoice.Currency, invoice.PaymentMethod,
		invoice.PaymentStatus, nullIfEmpty(invoice.Notes), invoice.VATEnabled,
		invoice.Subtotal, invoice.VAT, invoice.Total, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNumberConflict
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return r.insertItems(ctx, invoice)
}

// Update sobrescribe la cabecera y reemplaza todas las líneas.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices SET customer_id = $3, quote_id = $4, number = $5, issue_date = $6, operation_date = $7,
			due_date = $8, fiscal_regime = $9, payment_terms = $10, currency = $11, payment_method = $12,
			payment_status = $13, notes = $14, vat_enabled = $15, subtotal = $16, vat = $17, total = $18,
			updated_at = $19
		WHERE id = $1 AND user_id = $2`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.UserID, invoice.CustomerID, nullIfEmpty(invoice.QuoteID), invoice.Number,
		invoice.IssueDate, invoice.OperationDate, invoice.DueDate,
		invoice.FiscalRegime, nullIfEmpty(invoice.PaymentTerms), invoice.Currency, invoice.PaymentMethod,
		invoice.PaymentStatus, nullIfEmpty(invoice.Notes), invoice.VATEnabled,
		invoice.Subtotal, invoice.VAT, invoice.Total, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNumberConflict
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoice.ID); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return r.insertItems(ctx, invoice)
}

func (r *InvoiceRepo) insertItems(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, position, kind, material_id, manual_task, quantity, unit_price,
			discount_percent, discount_fixed, vat_applicable, visible_on_pdf, subtotal, vat_share)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for i := range invoice.Items {
		it := &invoice.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.InvoiceID = invoice.ID
		kind, materialID, task := kindColumns(it.Kind)
		_, err := r.q.Exec(ctx, query,
			it.ID, it.InvoiceID, it.Position, kind, materialID, task, it.Quantity, it.UnitPrice,
			it.DiscountPercent, it.DiscountFixed, it.VATApplicable, it.VisibleOnPDF, it.Subtotal, it.VATShare,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

// GetByID factura del usuario con sus líneas; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, invoiceSelect+` WHERE i.id = $1 AND i.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*entity.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByUser facturas del usuario, más recientes primero.
func (r *InvoiceRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, invoiceSelect+` WHERE i.user_id = $1 ORDER BY i.issue_date DESC, i.number DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete borra la factura; el contador de numeración no retrocede.
func (r *InvoiceRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete invoice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// NumberExists indica si el usuario ya tiene una factura con ese número.
func (r *InvoiceRepo) NumberExists(ctx context.Context, userID, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE user_id = $1 AND number = $2)`, userID, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("invoice number exists: %w", err)
	}
	return exists, nil
}

// MaxNumberWithPrefix mayor correlativo entre los números del usuario que empiezan por prefix.
// Los números que no siguen el formato SERIE-AÑO-NNNN se ignoran.
func (r *InvoiceRepo) MaxNumberWithPrefix(ctx context.Context, userID, prefix string) (int, error) {
	rows, err := r.q.Query(ctx, `SELECT number FROM invoices WHERE user_id = $1 AND starts_with(number, $2)`, userID, prefix)
	if err != nil {
		return 0, fmt.Errorf("max invoice number: %w", err)
	}
	defer rows.Close()

	last := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, fmt.Errorf("scan invoice number: %w", err)
		}
		if _, _, n, err := numbering.Parse(number); err == nil && n > last {
			last = n
		}
	}
	return last, rows.Err()
}

func (r *InvoiceRepo) loadItems(ctx context.Context, invoices []*entity.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Invoice, len(invoices))
	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		byID[inv.ID] = inv
		ids[i] = inv.ID
	}
	query := `
		SELECT ii.id, ii.invoice_id, ii.position, ii.kind, ii.material_id, COALESCE(ii.manual_task, ''),
			COALESCE(m.name, ''), ii.quantity, ii.unit_price, ii.discount_percent, ii.discount_fixed,
			ii.vat_applicable, ii.visible_on_pdf, ii.subtotal, ii.vat_share
		FROM invoice_items ii
		LEFT JOIN materials m ON m.id = ii.material_id
		WHERE ii.invoice_id = ANY($1)
		ORDER BY ii.invoice_id, ii.position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.InvoiceItem
		var kind, task, name string
		var materialID *string
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &kind, &materialID, &task,
			&name, &it.Quantity, &it.UnitPrice, &it.DiscountPercent, &it.DiscountFixed,
			&it.VATApplicable, &it.VisibleOnPDF, &it.Subtotal, &it.VATShare); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		it.Kind = lineKindFrom(kind, materialID, task, name)
		if inv, ok := byID[it.InvoiceID]; ok {
			inv.Items = append(inv.Items, it)
		}
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var quoteID *string
	var operationDate, dueDate *time.Time
	err := row.Scan(&inv.ID, &inv.UserID, &inv.CustomerID, &quoteID, &inv.Number, &inv.IssueDate,
		&operationDate, &dueDate, &inv.FiscalRegime, &inv.PaymentTerms, &inv.Currency, &inv.PaymentMethod,
		&inv.PaymentStatus, &inv.Notes, &inv.VATEnabled, &inv.Subtotal, &inv.VAT, &inv.Total,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.CustomerName, &inv.CustomerEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.QuoteID = derefString(quoteID)
	inv.IssueDate = *dateOnly(&inv.IssueDate)
	inv.OperationDate = dateOnly(operationDate)
	inv.DueDate = dateOnly(dueDate)
	return &inv, nil
}
