package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo datos de empresa y cuenta SMTP, una fila por usuario.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByUser devuelve la configuración del usuario o nil si aún no la guardó.
func (r *CompanyRepo) GetByUser(ctx context.Context, userID string) (*entity.Company, error) {
	query := `
		SELECT user_id, name, COALESCE(address, ''), COALESCE(postal_code, ''), COALESCE(province, ''),
			COALESCE(country, ''), COALESCE(nif, ''), COALESCE(phone, ''), COALESCE(email, ''),
			COALESCE(quote_footer, ''), COALESCE(invoice_footer, ''),
			COALESCE(mail_host, ''), COALESCE(mail_port, 0), COALESCE(mail_username, ''), COALESCE(mail_password, ''),
			updated_at
		FROM company_settings WHERE user_id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&c.UserID, &c.Name, &c.Address, &c.PostalCode, &c.Province,
		&c.Country, &c.NIF, &c.Phone, &c.Email,
		&c.QuoteFooter, &c.InvoiceFooter,
		&c.Mail.Host, &c.Mail.Port, &c.Mail.Username, &c.Mail.Password,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// Upsert crea o reemplaza la configuración del usuario.
func (r *CompanyRepo) Upsert(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO company_settings (user_id, name, address, postal_code, province, country, nif, phone, email,
			quote_footer, invoice_footer, mail_host, mail_port, mail_username, mail_password, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, postal_code = EXCLUDED.postal_code,
			province = EXCLUDED.province, country = EXCLUDED.country, nif = EXCLUDED.nif,
			phone = EXCLUDED.phone, email = EXCLUDED.email,
			quote_footer = EXCLUDED.quote_footer, invoice_footer = EXCLUDED.invoice_footer,
			mail_host = EXCLUDED.mail_host, mail_port = EXCLUDED.mail_port,
			mail_username = EXCLUDED.mail_username, mail_password = EXCLUDED.mail_password,
			updated_at = EXCLUDED.updated_at`
	var port any
	if c.Mail.Port > 0 {
		port = c.Mail.Port
	}
	_, err := r.q.Exec(ctx, query,
		c.UserID, c.Name, nullIfEmpty(c.Address), nullIfEmpty(c.PostalCode), nullIfEmpty(c.Province),
		nullIfEmpty(c.Country), nullIfEmpty(c.NIF), nullIfEmpty(c.Phone), nullIfEmpty(c.Email),
		nullIfEmpty(c.QuoteFooter), nullIfEmpty(c.InvoiceFooter),
		nullIfEmpty(c.Mail.Host), port, nullIfEmpty(c.Mail.Username), nullIfEmpty(c.Mail.Password),
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}
