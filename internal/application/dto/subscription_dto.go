package dto

import "time"

// SubscriptionResponse estado de la suscripción del usuario autenticado.
type SubscriptionResponse struct {
	Status           string     `json:"status"`
	CanWrite         bool       `json:"can_write"`
	TrialStart       *time.Time `json:"trial_start,omitempty"`
	TrialEnd         *time.Time `json:"trial_end,omitempty"`
	TrialDaysLeft    int        `json:"trial_days_left"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	HasBillingPortal bool       `json:"has_billing_portal"`
}

// CheckoutResponse URL de la página de pago del proveedor.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// PortalResponse URL del portal de facturación del proveedor.
type PortalResponse struct {
	PortalURL string `json:"portal_url"`
}

// SweepResponse resultado de un barrido manual de pruebas vencidas.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// WebhookAck confirmación de recepción de un webhook.
type WebhookAck struct {
	Received bool `json:"received"`
}
