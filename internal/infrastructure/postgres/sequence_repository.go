package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

var _ repository.InvoiceSequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador de numeración por usuario. Debe usarse con una tx.
type SequenceRepo struct {
	q Querier
}

func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// LockByUser toma el bloqueo de fila del contador hasta el fin de la tx.
func (r *SequenceRepo) LockByUser(ctx context.Context, userID string) (*numbering.Counter, error) {
	query := `SELECT user_id, series, year, last_number FROM invoice_sequences WHERE user_id = $1 FOR UPDATE`
	var c numbering.Counter
	err := r.q.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.Series, &c.Year, &c.LastNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock invoice sequence: %w", err)
	}
	return &c, nil
}

// InsertIfAbsent crea el contador; si otra tx lo creó antes no hace nada.
func (r *SequenceRepo) InsertIfAbsent(ctx context.Context, c *numbering.Counter) error {
	query := `
		INSERT INTO invoice_sequences (user_id, series, year, last_number, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, c.UserID, c.Series, c.Year, c.LastNumber); err != nil {
		return fmt.Errorf("insert invoice sequence: %w", err)
	}
	return nil
}

func (r *SequenceRepo) Save(ctx context.Context, c *numbering.Counter) error {
	query := `UPDATE invoice_sequences SET series = $2, year = $3, last_number = $4, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.q.Exec(ctx, query, c.UserID, c.Series, c.Year, c.LastNumber); err != nil {
		return fmt.Errorf("save invoice sequence: %w", err)
	}
	return nil
}
