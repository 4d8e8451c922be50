package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material plantilla reutilizable de línea (producto o servicio con precio).
type Material struct {
	ID            string
	UserID        string
	Name          string
	UnitOfMeasure string
	UnitPrice     decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
