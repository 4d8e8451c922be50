package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/appgestion-api/pkg/nif"
)

// Company datos fiscales y de contacto del emisor (uno por usuario).
type Company struct {
	UserID        string
	Name          string
	Address       string
	PostalCode    string
	Province      string
	Country       string
	NIF           string
	Phone         string
	Email         string
	QuoteFooter   string // notas al pie de los presupuestos
	InvoiceFooter string // notas al pie de las facturas
	Mail          MailSettings
	UpdatedAt     time.Time
}

// MailSettings cuenta SMTP con la que el usuario envía sus documentos.
type MailSettings struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Defaults de la cuenta SMTP cuando el usuario no los indica.
const (
	DefaultMailHost = "smtp.gmail.com"
	DefaultMailPort = 587
)

// Configured indica si hay credenciales para enviar correo.
func (m MailSettings) Configured() bool {
	return strings.TrimSpace(m.Username) != "" && m.Password != ""
}

// WithDefaults completa host y puerto.
func (m MailSettings) WithDefaults() MailSettings {
	if strings.TrimSpace(m.Host) == "" {
		m.Host = DefaultMailHost
	}
	if m.Port <= 0 {
		m.Port = DefaultMailPort
	}
	return m
}

// ValidateForInvoicing comprueba que emisor y cliente tienen los datos mínimos
// para emitir una factura. Devuelve el primer problema encontrado.
func ValidateForInvoicing(company *Company, customer *Customer) error {
	if company == nil {
		return fmt.Errorf("debe configurar los datos de la empresa antes de emitir facturas")
	}
	switch {
	case blank(company.PostalCode):
		return fmt.Errorf("el código postal de la empresa es obligatorio para facturación")
	case blank(company.Province):
		return fmt.Errorf("la provincia de la empresa es obligatoria para facturación")
	case blank(company.Country):
		return fmt.Errorf("el país de la empresa es obligatorio para facturación")
	case !blank(company.NIF) && !nif.Valid(company.NIF):
		return fmt.Errorf("el NIF de la empresa no es válido")
	}
	switch {
	case blank(customer.PostalCode):
		return fmt.Errorf("el código postal del cliente es obligatorio para facturación")
	case blank(customer.Province):
		return fmt.Errorf("la provincia del cliente es obligatoria para facturación")
	case blank(customer.Country):
		return fmt.Errorf("el país del cliente es obligatorio para facturación")
	case !blank(customer.TaxID) && !nif.Valid(customer.TaxID):
		return fmt.Errorf("el NIF del cliente no es válido")
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
