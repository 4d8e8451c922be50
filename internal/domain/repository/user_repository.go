package repository

import (
	"context"
	"time"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/subscription"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	// Create devuelve domain.ErrEmailAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.User, error)
	UpdateSubscription(ctx context.Context, userID string, acc subscription.Account) error
	// ListTrialOverdue usuarios en TRIAL_ACTIVE cuya prueba terminó antes de today.
	ListTrialOverdue(ctx context.Context, today time.Time) ([]*entity.User, error)
	// ListSubscriptionRecords devuelve el estado tal cual está guardado (migración de arranque).
	ListSubscriptionRecords(ctx context.Context) ([]SubscriptionRecord, error)
}

// SubscriptionRecord fila de suscripción sin interpretar.
type SubscriptionRecord struct {
	UserID    string
	RawStatus string
	Account   subscription.Account // Status vacío; el resto de campos tal cual
}

// WebhookEventRepository registro de eventos del proveedor ya procesados.
type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string, processedAt time.Time) error
}
