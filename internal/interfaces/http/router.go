package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/appgestion-api/internal/application/auth"
	"github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/application/usecase"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	UserUC       *usecase.UserUseCase
	CompanyUC    *usecase.CompanyUseCase
	CustomerUC   *billing.CustomerUseCase
	MaterialUC   *billing.MaterialUseCase
	QuoteUC      *billing.QuoteUseCase
	InvoiceUC    *billing.InvoiceUseCase
	Subscription *subscription.Service
	JWTSecret    string
	// SkipSubscriptionCheck desactiva el filtro de escritura (entornos locales).
	SkipSubscriptionCheck bool
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	subHandler := NewSubscriptionHandler(deps.Subscription)

	// Auth y webhook (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	app.Post("/webhook/stripe", subHandler.Webhook)

	// Rutas protegidas (Bearer Token + filtro de suscripción en escrituras), solo bajo
	// los prefijos de negocio: una ruta desconocida responde 404.
	authRequired := AuthMiddleware(deps.JWTSecret)
	writable := RequireWritableSubscription(deps.Subscription, deps.SkipSubscriptionCheck)
	protected := func(prefix string, extra ...fiber.Handler) fiber.Router {
		return app.Group(prefix, append([]fiber.Handler{authRequired, writable}, extra...)...)
	}

	app.Get("/auth/me", authRequired, writable, authHandler.Me)

	customers := protected("/clientes")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Get("/", customerHandler.List)
	customers.Post("/", customerHandler.Create)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", customerHandler.Delete)

	materials := protected("/materiales")
	materialHandler := NewMaterialHandler(deps.MaterialUC)
	materials.Get("/", materialHandler.List)
	materials.Post("/", materialHandler.Create)
	materials.Get("/:id", materialHandler.GetByID)
	materials.Put("/:id", materialHandler.Update)
	materials.Delete("/:id", materialHandler.Delete)

	quotes := protected("/presupuestos")
	quoteHandler := NewQuoteHandler(deps.QuoteUC)
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	quotes.Get("/", quoteHandler.List)
	quotes.Post("/", quoteHandler.Create)
	quotes.Get("/:id", quoteHandler.GetByID)
	quotes.Put("/:id", quoteHandler.Update)
	quotes.Delete("/:id", quoteHandler.Delete)
	quotes.Get("/:id/pdf", quoteHandler.PDF)
	quotes.Post("/:id/enviar-email", quoteHandler.SendEmail)
	quotes.Post("/:id/factura", invoiceHandler.CreateFromQuote)

	invoices := protected("/facturas")
	invoices.Get("/", invoiceHandler.List)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Post("/desde-presupuesto/:id", invoiceHandler.CreateFromQuote)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Delete)
	invoices.Get("/:id/pdf", invoiceHandler.PDF)
	invoices.Get("/:id/facturae", invoiceHandler.Facturae)
	invoices.Post("/:id/enviar-email", invoiceHandler.SendEmail)

	companyHandler := NewCompanyHandler(deps.CompanyUC)
	settings := protected("/config")
	settings.Get("/empresa", companyHandler.Get)
	settings.Put("/empresa", companyHandler.Save)

	subs := protected("/subscription")
	subs.Get("/", subHandler.Status)
	subs.Post("/checkout", subHandler.Checkout)
	subs.Post("/portal", subHandler.Portal)

	admin := protected("/admin", RequireRole(entity.RoleAdmin))
	admin.Post("/subscriptions/sweep", subHandler.SweepTrials)
}
