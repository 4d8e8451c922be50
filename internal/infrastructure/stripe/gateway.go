// Package stripe adapta Stripe como proveedor de pagos de la suscripción.
package stripe

import (
	"context"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/pkg/config"
)

var _ appsub.PaymentProvider = (*Gateway)(nil)

// MetadataUserID clave de metadata con la que se enlaza el usuario en Stripe.
const MetadataUserID = "usuario_id"

// Gateway implementa subscription.PaymentProvider sobre la API de Stripe.
type Gateway struct {
	api *client.API
	cfg config.StripeConfig
}

// NewGateway construye el cliente con la clave secreta de la configuración.
func NewGateway(cfg config.StripeConfig) *Gateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Gateway{api: api, cfg: cfg}
}

// GetSubscription consulta la suscripción en Stripe.
func (g *Gateway) GetSubscription(ctx context.Context, subscriptionID string) (*appsub.ProviderSubscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: obtener suscripción %s: %w", subscriptionID, err)
	}
	return toProviderSubscription(sub), nil
}

// CreateCustomer da de alta el cliente de pago del usuario.
func (g *Gateway) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(email),
		Name:  stripeapi.String(name),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, userID)
	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: crear cliente: %w", err)
	}
	return c.ID, nil
}

// CheckoutURL abre una sesión de checkout de la suscripción mensual.
func (g *Gateway) CheckoutURL(ctx context.Context, userID, customerID string) (string, error) {
	params := checkoutParams(g.cfg, userID, customerID)
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: crear sesión de checkout: %w", err)
	}
	return s.URL, nil
}

// PortalURL abre el portal de facturación del cliente.
func (g *Gateway) PortalURL(ctx context.Context, customerID string) (string, error) {
	params := &stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(g.cfg.PortalReturnURL),
	}
	params.Context = ctx
	s, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: crear sesión de portal: %w", err)
	}
	return s.URL, nil
}

// checkoutParams sesión en modo suscripción con el usuario en la metadata de la
// sesión y de la suscripción resultante.
func checkoutParams(cfg config.StripeConfig, userID, customerID string) *stripeapi.CheckoutSessionParams {
	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		Customer:          stripeapi.String(customerID),
		ClientReferenceID: stripeapi.String(userID),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{Price: stripeapi.String(cfg.PriceIDMonthly), Quantity: stripeapi.Int64(1)},
		},
		SuccessURL: stripeapi.String(cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripeapi.String(cfg.CancelURL),
		SubscriptionData: &stripeapi.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: userID},
		},
	}
	params.AddMetadata(MetadataUserID, userID)
	return params
}

func toProviderSubscription(sub *stripeapi.Subscription) *appsub.ProviderSubscription {
	out := &appsub.ProviderSubscription{
		ID:        sub.ID,
		Status:    string(sub.Status),
		PeriodEnd: unixTime(sub.CurrentPeriodEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
