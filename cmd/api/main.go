package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/appgestion-api/docs"
	"github.com/jhoicas/appgestion-api/internal/application/auth"
	"github.com/jhoicas/appgestion-api/internal/application/billing"
	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/application/usecase"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/facturae"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/mail"
	infrapdf "github.com/jhoicas/appgestion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/scheduler"
	infrastripe "github.com/jhoicas/appgestion-api/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/appgestion-api/internal/interfaces/http"
	"github.com/jhoicas/appgestion-api/pkg/config"
	"github.com/jhoicas/appgestion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.DB.RunMigrations {
		version, err := postgres.Migrate(cfg.DB.ConnectionString())
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Uint("version", version).Msg("esquema actualizado")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	materialRepo := postgres.NewMaterialRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Pagos: sin clave de Stripe la suscripción queda en modo solo lectura de estado
	var (
		provider appsub.PaymentProvider
		parser   appsub.WebhookParser
	)
	if cfg.Stripe.SecretKey != "" {
		provider = infrastripe.NewGateway(cfg.Stripe)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY vacío: checkout y portal deshabilitados")
	}
	if cfg.Stripe.WebhookSecret != "" {
		parser = infrastripe.NewWebhookParser(cfg.Stripe.WebhookSecret)
	}
	subscriptionSvc := appsub.NewService(userRepo, txRunner, provider, parser, log)

	if n, err := subscriptionSvc.MigrateLegacyUsers(ctx); err != nil {
		log.Fatal().Err(err).Msg("migración de suscripciones")
	} else if n > 0 {
		log.Info().Int("users", n).Msg("usuarios migrados al modelo de suscripción")
	}

	sweeper, err := scheduler.New(cfg.Subscription.SweepSpec, subscriptionSvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}
	sweeper.Start()

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	mailer := mail.NewGomailSender()

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	quoteUC := billing.NewQuoteUseCase(
		txRunner, quoteRepo, customerRepo, materialRepo, companyRepo, pdfGenerator, mailer, log,
	)
	invoiceUC := billing.NewInvoiceUseCase(billing.InvoiceDeps{
		TxRunner:     txRunner,
		InvoiceRepo:  invoiceRepo,
		QuoteRepo:    quoteRepo,
		CustomerRepo: customerRepo,
		MaterialRepo: materialRepo,
		CompanyRepo:  companyRepo,
		PDF:          pdfGenerator,
		Mailer:       mailer,
		Facturae:     facturae.NewExporter(),
		Logger:       log,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "AppGestión API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:                authUC,
		UserUC:                usecase.NewUserUseCase(userRepo),
		CompanyUC:             usecase.NewCompanyUseCase(companyRepo),
		CustomerUC:            billing.NewCustomerUseCase(customerRepo),
		MaterialUC:            billing.NewMaterialUseCase(materialRepo),
		QuoteUC:               quoteUC,
		InvoiceUC:             invoiceUC,
		Subscription:          subscriptionSvc,
		JWTSecret:             cfg.JWT.Secret,
		SkipSubscriptionCheck: cfg.Subscription.SkipCheck,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	sweeper.Stop(shutdownCtx)

	log.Info().Msg("aplicación detenida")
}
