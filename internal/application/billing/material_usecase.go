package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// MaterialUseCase catálogo de materiales del usuario.
type MaterialUseCase struct {
	repo repository.MaterialRepository
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(repo repository.MaterialRepository) *MaterialUseCase {
	return &MaterialUseCase{repo: repo}
}

func (uc *MaterialUseCase) Create(ctx context.Context, userID string, in dto.MaterialRequest) (*dto.MaterialResponse, error) {
	if err := validateMaterial(in); err != nil {
		return nil, err
	}
	now := time.Now()
	m := &entity.Material{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		UnitOfMeasure: strings.TrimSpace(in.UnitOfMeasure),
		UnitPrice:     in.UnitPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("crear material: %w", err)
	}
	return toMaterialResponse(m), nil
}

func (uc *MaterialUseCase) Update(ctx context.Context, userID, id string, in dto.MaterialRequest) (*dto.MaterialResponse, error) {
	if err := validateMaterial(in); err != nil {
		return nil, err
	}
	m, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.Name = strings.TrimSpace(in.Name)
	m.UnitOfMeasure = strings.TrimSpace(in.UnitOfMeasure)
	m.UnitPrice = in.UnitPrice
	m.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("actualizar material: %w", err)
	}
	return toMaterialResponse(m), nil
}

func (uc *MaterialUseCase) Get(ctx context.Context, userID, id string) (*dto.MaterialResponse, error) {
	m, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toMaterialResponse(m), nil
}

func (uc *MaterialUseCase) List(ctx context.Context, userID string) ([]*dto.MaterialResponse, error) {
	list, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listar materiales: %w", err)
	}
	out := make([]*dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMaterialResponse(m))
	}
	return out, nil
}

// Delete borra el material. Las líneas que lo usaban conservan sus importes.
func (uc *MaterialUseCase) Delete(ctx context.Context, userID, id string) error {
	ok, err := uc.repo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("eliminar material: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (uc *MaterialUseCase) owned(ctx context.Context, userID, id string) (*entity.Material, error) {
	m, err := uc.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener material: %w", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func validateMaterial(in dto.MaterialRequest) error {
	if err := dto.Validate(in); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() {
		ve := domain.NewValidationError()
		ve.Add("unit_price", "el precio no puede ser negativo")
		return ve
	}
	return nil
}

func toMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:            m.ID,
		Name:          m.Name,
		UnitOfMeasure: m.UnitOfMeasure,
		UnitPrice:     m.UnitPrice,
	}
}
