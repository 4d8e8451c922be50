package repository

import (
	"context"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
// Todas las lecturas y borrados se filtran por propietario.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id, userID string) (*entity.Customer, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	// Delete devuelve false si no existe o no pertenece al usuario.
	Delete(ctx context.Context, id, userID string) (bool, error)
}

// MaterialRepository define el puerto de persistencia para Material.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id, userID string) (*entity.Material, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Material, error)
	Update(ctx context.Context, material *entity.Material) error
	Delete(ctx context.Context, id, userID string) (bool, error)
}

// CompanyRepository datos del emisor, uno por usuario.
type CompanyRepository interface {
	GetByUser(ctx context.Context, userID string) (*entity.Company, error)
	Upsert(ctx context.Context, company *entity.Company) error
}
