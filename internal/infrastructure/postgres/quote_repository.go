package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo presupuestos y sus líneas (usable con pool o tx).
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteSelect = `
	SELECT qt.id, qt.user_id, qt.customer_id, qt.status, qt.vat_enabled,
		qt.global_discount_percent, qt.global_discount_fixed, qt.discount_before_vat,
		qt.subtotal, qt.vat, qt.total, qt.created_at, qt.updated_at,
		c.name, COALESCE(c.email, '')
	FROM quotes qt
	JOIN customers c ON c.id = qt.customer_id`

// Create persiste la cabecera y las líneas. Llamar dentro de una tx para que sea atómico.
func (r *QuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	query := `
		INSERT INTO quotes (id, user_id, customer_id, status, vat_enabled, global_discount_percent,
			global_discount_fixed, discount_before_vat, subtotal, vat, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		quote.ID, quote.UserID, quote.CustomerID, quote.Status, quote.VATEnabled, quote.GlobalDiscountPercent,
		quote.GlobalDiscountFixed, quote.DiscountBeforeVAT, quote.Subtotal, quote.VAT, quote.Total,
		quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return r.insertItems(ctx, quote)
}

// Update sobrescribe la cabecera y reemplaza todas las líneas. Dentro de una tx, la
// UPDATE de cabecera bloquea la fila y serializa dos reemplazos concurrentes.
func (r *QuoteRepo) Update(ctx context.Context, quote *entity.Quote) error {
	query := `
		UPDATE quotes SET customer_id = $3, status = $4, vat_enabled = $5, global_discount_percent = $6,
			global_discount_fixed = $7, discount_before_vat = $8, subtotal = $9, vat = $10, total = $11,
			updated_at = $12
		WHERE id = $1 AND user_id = $2`
	_, err := r.q.Exec(ctx, query,
		quote.ID, quote.UserID, quote.CustomerID, quote.Status, quote.VATEnabled, quote.GlobalDiscountPercent,
		quote.GlobalDiscountFixed, quote.DiscountBeforeVAT, quote.Subtotal, quote.VAT, quote.Total,
		quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quote.ID); err != nil {
		return fmt.Errorf("delete quote items: %w", err)
	}
	return r.insertItems(ctx, quote)
}

func (r *QuoteRepo) insertItems(ctx context.Context, quote *entity.Quote) error {
	query := `
		INSERT INTO quote_items (id, quote_id, position, kind, material_id, manual_task, quantity, unit_price,
			discount_percent, discount_fixed, vat_applicable, visible_on_pdf, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for i := range quote.Items {
		it := &quote.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.QuoteID = quote.ID
		kind, materialID, task := kindColumns(it.Kind)
		_, err := r.q.Exec(ctx, query,
			it.ID, it.QuoteID, it.Position, kind, materialID, task, it.Quantity, it.UnitPrice,
			it.DiscountPercent, it.DiscountFixed, it.VATApplicable, it.VisibleOnPDF, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert quote item: %w", err)
		}
	}
	return nil
}

// GetByID presupuesto del usuario con sus líneas; nil si no existe.
func (r *QuoteRepo) GetByID(ctx context.Context, id, userID string) (*entity.Quote, error) {
	quote, err := scanQuote(r.q.QueryRow(ctx, quoteSelect+` WHERE qt.id = $1 AND qt.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*entity.Quote{quote}); err != nil {
		return nil, err
	}
	return quote, nil
}

// ListByUser presupuestos del usuario, más recientes primero.
func (r *QuoteRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Quote, error) {
	rows, err := r.q.Query(ctx, quoteSelect+` WHERE qt.user_id = $1 ORDER BY qt.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	list := make([]*entity.Quote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, quote)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetStatus cambia solo el estado.
func (r *QuoteRepo) SetStatus(ctx context.Context, id, userID, status string) error {
	_, err := r.q.Exec(ctx, `UPDATE quotes SET status = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID, status)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	return nil
}

// Delete borra el presupuesto; las líneas caen en cascada.
func (r *QuoteRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM quotes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete quote: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// loadItems carga las líneas de todos los presupuestos en una sola consulta.
func (r *QuoteRepo) loadItems(ctx context.Context, quotes []*entity.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Quote, len(quotes))
	ids := make([]string, len(quotes))
	for i, q := range quotes {
		byID[q.ID] = q
		ids[i] = q.ID
	}
	query := `
		SELECT qi.id, qi.quote_id, qi.position, qi.kind, qi.material_id, COALESCE(qi.manual_task, ''),
			COALESCE(m.name, ''), qi.quantity, qi.unit_price, qi.discount_percent, qi.discount_fixed,
			qi.vat_applicable, qi.visible_on_pdf, qi.subtotal
		FROM quote_items qi
		LEFT JOIN materials m ON m.id = qi.material_id
		WHERE qi.quote_id = ANY($1)
		ORDER BY qi.quote_id, qi.position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list quote items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.QuoteItem
		var kind, task, name string
		var materialID *string
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Position, &kind, &materialID, &task,
			&name, &it.Quantity, &it.UnitPrice, &it.DiscountPercent, &it.DiscountFixed,
			&it.VATApplicable, &it.VisibleOnPDF, &it.Subtotal); err != nil {
			return fmt.Errorf("scan quote item: %w", err)
		}
		it.Kind = lineKindFrom(kind, materialID, task, name)
		if q, ok := byID[it.QuoteID]; ok {
			q.Items = append(q.Items, it)
		}
	}
	return rows.Err()
}

func scanQuote(row pgx.Row) (*entity.Quote, error) {
	var q entity.Quote
	err := row.Scan(&q.ID, &q.UserID, &q.CustomerID, &q.Status, &q.VATEnabled,
		&q.GlobalDiscountPercent, &q.GlobalDiscountFixed, &q.DiscountBeforeVAT,
		&q.Subtotal, &q.VAT, &q.Total, &q.CreatedAt, &q.UpdatedAt,
		&q.CustomerName, &q.CustomerEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan quote: %w", err)
	}
	return &q, nil
}
