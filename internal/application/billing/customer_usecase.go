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
	"github.com/jhoicas/appgestion-api/pkg/nif"
)

// CustomerUseCase casos de uso para clientes.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create crea un nuevo cliente del usuario.
func (uc *CustomerUseCase) Create(ctx context.Context, userID string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if err := validateCustomer(in); err != nil {
		return nil, err
	}
	now := time.Now()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyCustomer(customer, in)
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("crear cliente: %w", err)
	}
	return toCustomerResponse(customer), nil
}

// Update sobrescribe los datos de un cliente.
func (uc *CustomerUseCase) Update(ctx context.Context, userID, id string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if err := validateCustomer(in); err != nil {
		return nil, err
	}
	customer, err := ownedCustomer(ctx, uc.repo, id, userID)
	if err != nil {
		return nil, err
	}
	applyCustomer(customer, in)
	customer.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("actualizar cliente: %w", err)
	}
	return toCustomerResponse(customer), nil
}

// Get devuelve un cliente del usuario.
func (uc *CustomerUseCase) Get(ctx context.Context, userID, id string) (*dto.CustomerResponse, error) {
	customer, err := ownedCustomer(ctx, uc.repo, id, userID)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// List lista los clientes del usuario por nombre.
func (uc *CustomerUseCase) List(ctx context.Context, userID string) ([]*dto.CustomerResponse, error) {
	list, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// Delete borra un cliente.
func (uc *CustomerUseCase) Delete(ctx context.Context, userID, id string) error {
	ok, err := uc.repo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("eliminar cliente: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func validateCustomer(in dto.CustomerRequest) error {
	if err := dto.Validate(in); err != nil {
		return err
	}
	if tax := strings.TrimSpace(in.TaxID); tax != "" && !nif.Valid(tax) {
		ve := domain.NewValidationError()
		ve.Add("tax_id", "NIF/NIE/CIF no válido")
		return ve
	}
	return nil
}

func applyCustomer(c *entity.Customer, in dto.CustomerRequest) {
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.PostalCode = strings.TrimSpace(in.PostalCode)
	c.Province = strings.TrimSpace(in.Province)
	c.Country = strings.TrimSpace(in.Country)
	c.TaxID = nif.Normalize(in.TaxID)
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:         c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		Province:   c.Province,
		Country:    c.Country,
		TaxID:      c.TaxID,
		CreatedAt:  c.CreatedAt,
	}
}
