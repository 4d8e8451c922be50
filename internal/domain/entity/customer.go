package entity

import "time"

// Customer cliente de un usuario (destinatario de presupuestos y facturas).
type Customer struct {
	ID         string
	UserID     string
	Name       string
	Phone      string
	Email      string
	Address    string
	PostalCode string
	Province   string
	Country    string
	TaxID      string // NIF: DNI, NIE o CIF
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
