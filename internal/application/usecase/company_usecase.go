package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	"github.com/jhoicas/appgestion-api/pkg/nif"
)

// CompanyUseCase datos del emisor de cada usuario (configuración de empresa).
type CompanyUseCase struct {
	repo repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso con el puerto de persistencia.
func NewCompanyUseCase(repo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{repo: repo}
}

// Get devuelve la configuración de empresa del usuario. domain.ErrNotFound si aún no existe.
func (uc *CompanyUseCase) Get(ctx context.Context, userID string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return entityToCompanyResponse(company), nil
}

// Save crea o reemplaza la configuración. Una contraseña SMTP vacía conserva la guardada.
func (uc *CompanyUseCase) Save(ctx context.Context, userID string, in dto.CompanyRequest) (*dto.CompanyResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if n := strings.TrimSpace(in.NIF); n != "" && !nif.Valid(n) {
		ve := domain.NewValidationError()
		ve.Add("nif", "NIF/NIE/CIF no válido")
		return nil, ve
	}
	current, err := uc.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	company := &entity.Company{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Address:       strings.TrimSpace(in.Address),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Province:      strings.TrimSpace(in.Province),
		Country:       strings.TrimSpace(in.Country),
		NIF:           nif.Normalize(in.NIF),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		QuoteFooter:   in.QuoteFooter,
		InvoiceFooter: in.InvoiceFooter,
		Mail: entity.MailSettings{
			Host:     strings.TrimSpace(in.MailHost),
			Port:     in.MailPort,
			Username: strings.TrimSpace(in.MailUsername),
			Password: in.MailPassword,
		},
		UpdatedAt: time.Now(),
	}
	if company.Mail.Password == "" && current != nil {
		company.Mail.Password = current.Mail.Password
	}
	if err := uc.repo.Upsert(ctx, company); err != nil {
		return nil, fmt.Errorf("guardar empresa: %w", err)
	}
	return entityToCompanyResponse(company), nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	mail := c.Mail.WithDefaults()
	return &dto.CompanyResponse{
		Name:           c.Name,
		Address:        c.Address,
		PostalCode:     c.PostalCode,
		Province:       c.Province,
		Country:        c.Country,
		NIF:            c.NIF,
		Phone:          c.Phone,
		Email:          c.Email,
		QuoteFooter:    c.QuoteFooter,
		InvoiceFooter:  c.InvoiceFooter,
		MailHost:       mail.Host,
		MailPort:       mail.Port,
		MailUsername:   c.Mail.Username,
		MailConfigured: c.Mail.Configured(),
		UpdatedAt:      c.UpdatedAt,
	}
}
