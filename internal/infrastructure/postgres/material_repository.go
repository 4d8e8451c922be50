package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo catálogo de materiales del usuario.
type MaterialRepo struct {
	q Querier
}

func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

const materialColumns = `id, user_id, name, COALESCE(unit_of_measure, ''), unit_price, created_at, updated_at`

func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (id, user_id, name, unit_of_measure, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, m.ID, m.UserID, m.Name, nullIfEmpty(m.UnitOfMeasure), m.UnitPrice, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

func (r *MaterialRepo) GetByID(ctx context.Context, id, userID string) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1 AND user_id = $2`
	var m entity.Material
	err := r.q.QueryRow(ctx, query, id, userID).Scan(&m.ID, &m.UserID, &m.Name, &m.UnitOfMeasure, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

func (r *MaterialRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE user_id = $1 ORDER BY name`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Material, 0)
	for rows.Next() {
		var m entity.Material
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.UnitOfMeasure, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials SET name = $3, unit_of_measure = $4, unit_price = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2`
	_, err := r.q.Exec(ctx, query, m.ID, m.UserID, m.Name, nullIfEmpty(m.UnitOfMeasure), m.UnitPrice, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// Delete borra el material; las líneas que lo referencian conservan sus importes.
func (r *MaterialRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM materials WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete material: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
