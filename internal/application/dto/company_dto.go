package dto

import "time"

// CompanyRequest body de PUT /config/empresa.
type CompanyRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address"`
	PostalCode    string `json:"postal_code"`
	Province      string `json:"province"`
	Country       string `json:"country"`
	NIF           string `json:"nif"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	QuoteFooter   string `json:"quote_footer"`
	InvoiceFooter string `json:"invoice_footer"`
	MailHost      string `json:"mail_host"`
	MailPort      int    `json:"mail_port" validate:"omitempty,min=1,max=65535"`
	MailUsername  string `json:"mail_username"`
	// MailPassword vacío conserva la contraseña guardada.
	MailPassword string `json:"mail_password,omitempty"`
}

// CompanyResponse datos del emisor (sin la contraseña SMTP).
type CompanyResponse struct {
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	PostalCode     string    `json:"postal_code"`
	Province       string    `json:"province"`
	Country        string    `json:"country"`
	NIF            string    `json:"nif"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	QuoteFooter    string    `json:"quote_footer"`
	InvoiceFooter  string    `json:"invoice_footer"`
	MailHost       string    `json:"mail_host"`
	MailPort       int       `json:"mail_port"`
	MailUsername   string    `json:"mail_username"`
	MailConfigured bool      `json:"mail_configured"`
	UpdatedAt      time.Time `json:"updated_at"`
}
