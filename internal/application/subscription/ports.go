package subscription

import (
	"context"
	"time"

	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// Tipos de evento del proveedor que cambian el estado de la suscripción.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// WebhookEvent evento del proveedor ya verificado y reducido a lo que usa la aplicación.
type WebhookEvent struct {
	ID             string
	Type           string
	UserID         string // metadata usuario_id (checkout)
	CustomerID     string
	SubscriptionID string
	Status         string // estado del proveedor (eventos de suscripción)
	PeriodEnd      *time.Time
}

// WebhookParser verifica la firma y decodifica el cuerpo. Firma inválida → domain.ErrInvalidSignature.
type WebhookParser interface {
	Parse(payload []byte, signatureHeader string) (*WebhookEvent, error)
}

// ProviderSubscription suscripción tal como la ve el proveedor.
type ProviderSubscription struct {
	ID         string
	CustomerID string
	Status     string
	PeriodEnd  *time.Time
}

// PaymentProvider operaciones de cobro recurrente.
type PaymentProvider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	CreateCustomer(ctx context.Context, userID, email, name string) (customerID string, err error)
	CheckoutURL(ctx context.Context, userID, customerID string) (string, error)
	PortalURL(ctx context.Context, customerID string) (string, error)
}

// TxRunner ejecuta fn en una transacción con los repos de usuarios y eventos procesados.
type TxRunner interface {
	RunSubscription(ctx context.Context, fn func(
		userRepo repository.UserRepository,
		eventRepo repository.WebhookEventRepository,
	) error) error
}
