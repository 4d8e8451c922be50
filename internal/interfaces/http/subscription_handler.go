package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/application/subscription"
)

// HeaderStripeSignature cabecera firmada que acompaña a cada webhook.
const HeaderStripeSignature = "Stripe-Signature"

// SubscriptionHandler maneja /subscription, el webhook del proveedor y el barrido manual.
type SubscriptionHandler struct {
	svc *subscription.Service
}

// NewSubscriptionHandler construye el handler de suscripciones.
func NewSubscriptionHandler(svc *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Status godoc
// @Summary      Estado de la suscripción
// @Tags         subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SubscriptionResponse
// @Router       /subscription [get]
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	out, err := h.svc.Status(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Checkout godoc
// @Summary      Iniciar pago de la suscripción
// @Tags         subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CheckoutResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /subscription/checkout [post]
func (h *SubscriptionHandler) Checkout(c *fiber.Ctx) error {
	out, err := h.svc.Checkout(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Portal godoc
// @Summary      Portal de facturación
// @Tags         subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.PortalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /subscription/portal [post]
func (h *SubscriptionHandler) Portal(c *fiber.Ctx) error {
	out, err := h.svc.Portal(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Webhook godoc
// @Summary      Webhook de Stripe
// @Description  Verifica la firma y aplica el evento. Los eventos repetidos se ignoran.
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Firma del evento"
// @Success      200  {object}  dto.WebhookAck
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /webhook/stripe [post]
func (h *SubscriptionHandler) Webhook(c *fiber.Ctx) error {
	// el buffer de fasthttp se reutiliza entre peticiones
	payload := append([]byte(nil), c.Body()...)
	if err := h.svc.HandleWebhook(c.UserContext(), payload, c.Get(HeaderStripeSignature)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.WebhookAck{Received: true})
}

// SweepTrials godoc
// @Summary      Expirar pruebas vencidas
// @Description  Ejecuta el mismo barrido que el job diario. Solo ADMIN.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SweepResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /admin/subscriptions/sweep [post]
func (h *SubscriptionHandler) SweepTrials(c *fiber.Ctx) error {
	n, err := h.svc.ExpireTrials(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SweepResponse{Expired: n})
}
