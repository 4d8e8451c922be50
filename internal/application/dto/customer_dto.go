package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRequest body para crear o actualizar un cliente.
type CustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty"`
	TaxID      string `json:"tax_id,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Province   string    `json:"province,omitempty"`
	Country    string    `json:"country,omitempty"`
	TaxID      string    `json:"tax_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaterialRequest body para crear o actualizar un material.
type MaterialRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	UnitOfMeasure string          `json:"unit_of_measure,omitempty" validate:"max=30"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// MaterialResponse material en respuestas.
type MaterialResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UnitOfMeasure string          `json:"unit_of_measure,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}
