package dto

import "time"

// RegisterRequest entrada para registro (auth).
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse salida de registro y login con el token JWT.
type AuthResponse struct {
	Token              string    `json:"token"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	ExpiresAt          time.Time `json:"expires_at"`
	SubscriptionStatus string    `json:"subscription_status"`
}

// UserResponse perfil del usuario autenticado.
type UserResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	Active             bool      `json:"active"`
	SubscriptionStatus string    `json:"subscription_status"`
	CanWrite           bool      `json:"can_write"`
	TrialDaysLeft      int       `json:"trial_days_left"`
	CreatedAt          time.Time `json:"created_at"`
}
