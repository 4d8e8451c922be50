package entity

import (
	"time"

	"github.com/jhoicas/appgestion-api/internal/domain/subscription"
)

// Roles válidos para User.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User cuenta de acceso. Cada usuario es dueño de sus clientes, materiales y documentos.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // USER, ADMIN
	Active       bool
	Subscription subscription.Account
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
