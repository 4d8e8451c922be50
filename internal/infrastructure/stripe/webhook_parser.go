package stripe

import (
	"encoding/json"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/domain"
)

var _ appsub.WebhookParser = (*WebhookParser)(nil)

// WebhookParser verifica la cabecera Stripe-Signature y reduce el evento.
type WebhookParser struct {
	secret string
}

func NewWebhookParser(secret string) *WebhookParser {
	return &WebhookParser{secret: secret}
}

// Parse valida firma y antigüedad (tolerancia por defecto de Stripe) y extrae
// los datos del objeto según el tipo de evento.
func (p *WebhookParser) Parse(payload []byte, signatureHeader string) (*appsub.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &appsub.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case appsub.EventCheckoutCompleted:
		var s stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, malformed(out.Type, err)
		}
		out.UserID = s.Metadata[MetadataUserID]
		if out.UserID == "" {
			out.UserID = s.ClientReferenceID
		}
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}

	case appsub.EventSubscriptionUpdated, appsub.EventSubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, malformed(out.Type, err)
		}
		ps := toProviderSubscription(&sub)
		out.SubscriptionID = ps.ID
		out.CustomerID = ps.CustomerID
		out.Status = ps.Status
		out.PeriodEnd = ps.PeriodEnd
		out.UserID = sub.Metadata[MetadataUserID]

	case appsub.EventInvoicePaid, appsub.EventInvoicePaymentFailed:
		var inv stripeapi.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, malformed(out.Type, err)
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
	}
	return out, nil
}

func malformed(eventType string, err error) error {
	return fmt.Errorf("%w: evento %s mal formado: %v", domain.ErrInvalidInput, eventType, err)
}
