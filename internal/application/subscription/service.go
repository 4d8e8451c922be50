// Package subscription orquesta el ciclo de vida de la suscripción: webhooks del
// proveedor, expiración diaria de pruebas, migración de arranque y checkout.
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	domainsub "github.com/jhoicas/appgestion-api/internal/domain/subscription"
	"github.com/jhoicas/appgestion-api/pkg/logger"
)

// Service casos de uso de suscripción.
type Service struct {
	userRepo repository.UserRepository
	txRunner TxRunner
	provider PaymentProvider
	parser   WebhookParser
	log      *logger.Logger
	now      func() time.Time
}

// NewService construye el servicio. provider y parser pueden ser nil si no hay
// proveedor configurado; checkout, portal y webhooks fallan en ese caso.
func NewService(userRepo repository.UserRepository, txRunner TxRunner, provider PaymentProvider, parser WebhookParser, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		userRepo: userRepo,
		txRunner: txRunner,
		provider: provider,
		parser:   parser,
		log:      log.Component("subscription"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ── Consulta y gate ─────────────────────────────────────────────────────────

// CanWrite indica si el usuario puede modificar datos. Usuario inexistente → false.
func (s *Service) CanWrite(ctx context.Context, userID string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("suscripción: obtener usuario: %w", err)
	}
	if user == nil {
		return false, nil
	}
	return user.Subscription.CanWrite(), nil
}

// Status resumen de la suscripción del usuario.
func (s *Service) Status(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	acc := user.Subscription
	return &dto.SubscriptionResponse{
		Status:           string(acc.Status),
		CanWrite:         acc.CanWrite(),
		TrialStart:       acc.TrialStart,
		TrialEnd:         acc.TrialEnd,
		TrialDaysLeft:    acc.TrialDaysLeft(s.now()),
		CurrentPeriodEnd: acc.CurrentPeriodEnd,
		HasBillingPortal: acc.CustomerID != "",
	}, nil
}

// ── Checkout y portal ───────────────────────────────────────────────────────

// Checkout abre una sesión de pago. Crea el cliente en el proveedor si aún no existe.
func (s *Service) Checkout(ctx context.Context, userID string) (*dto.CheckoutResponse, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("suscripción: proveedor de pagos no configurado")
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	acc := user.Subscription
	if acc.CustomerID == "" {
		customerID, err := s.provider.CreateCustomer(ctx, user.ID, user.Email, user.Name)
		if err != nil {
			return nil, fmt.Errorf("suscripción: crear cliente en el proveedor: %w", err)
		}
		acc.CustomerID = customerID
		if err := s.userRepo.UpdateSubscription(ctx, user.ID, acc); err != nil {
			return nil, fmt.Errorf("suscripción: guardar cliente: %w", err)
		}
	}
	url, err := s.provider.CheckoutURL(ctx, user.ID, acc.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("suscripción: crear checkout: %w", err)
	}
	return &dto.CheckoutResponse{CheckoutURL: url}, nil
}

// Portal URL del portal de facturación. Sin cliente en el proveedor → domain.ErrNoBillingAccount.
func (s *Service) Portal(ctx context.Context, userID string) (*dto.PortalResponse, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Subscription.CustomerID == "" {
		return nil, domain.ErrNoBillingAccount
	}
	if s.provider == nil {
		return nil, fmt.Errorf("suscripción: proveedor de pagos no configurado")
	}
	url, err := s.provider.PortalURL(ctx, user.Subscription.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("suscripción: crear sesión de portal: %w", err)
	}
	return &dto.PortalResponse{PortalURL: url}, nil
}

// ── Webhooks ────────────────────────────────────────────────────────────────

// HandleWebhook verifica y aplica un evento del proveedor. Un evento ya procesado
// no vuelve a aplicarse; el id se registra en la misma transacción que el cambio.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if s.parser == nil {
		return fmt.Errorf("suscripción: webhooks no configurados")
	}
	ev, err := s.parser.Parse(payload, signatureHeader)
	if err != nil {
		return err
	}

	// checkout trae solo el id; el estado se consulta al proveedor fuera de la transacción
	var remote *ProviderSubscription
	if ev.Type == EventCheckoutCompleted && ev.UserID != "" && ev.SubscriptionID != "" {
		if s.provider == nil {
			return fmt.Errorf("suscripción: proveedor de pagos no configurado")
		}
		remote, err = s.provider.GetSubscription(ctx, ev.SubscriptionID)
		if err != nil {
			return fmt.Errorf("suscripción: consultar %s: %w", ev.SubscriptionID, err)
		}
	}

	applied := false
	err = s.txRunner.RunSubscription(ctx, func(userRepo repository.UserRepository, eventRepo repository.WebhookEventRepository) error {
		seen, err := eventRepo.Exists(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("comprobar evento: %w", err)
		}
		if seen {
			return nil
		}
		if applied, err = s.apply(ctx, userRepo, ev, remote); err != nil {
			return err
		}
		if err := eventRepo.Record(ctx, ev.ID, s.now()); err != nil {
			return fmt.Errorf("registrar evento: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("suscripción: webhook %s: %w", ev.ID, err)
	}
	s.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Bool("applied", applied).Msg("webhook procesado")
	return nil
}

// apply devuelve true si el evento cambió a algún usuario.
func (s *Service) apply(ctx context.Context, userRepo repository.UserRepository, ev *WebhookEvent, remote *ProviderSubscription) (bool, error) {
	switch ev.Type {
	case EventCheckoutCompleted:
		if ev.UserID == "" || ev.SubscriptionID == "" || remote == nil {
			s.log.Warn().Str("event_id", ev.ID).Msg("checkout sin usuario_id o sin suscripción, se ignora")
			return false, nil
		}
		user, err := userRepo.GetByID(ctx, ev.UserID)
		if err != nil {
			return false, fmt.Errorf("obtener usuario: %w", err)
		}
		if user == nil {
			s.log.Warn().Str("user_id", ev.UserID).Msg("checkout de un usuario inexistente, se ignora")
			return false, nil
		}
		customerID := remote.CustomerID
		if customerID == "" {
			customerID = ev.CustomerID
		}
		user.Subscription.Activate(customerID, remote.ID, remote.Status, remote.PeriodEnd)
		return true, userRepo.UpdateSubscription(ctx, user.ID, user.Subscription)

	case EventSubscriptionUpdated, EventSubscriptionDeleted, EventInvoicePaid, EventInvoicePaymentFailed:
		if ev.SubscriptionID == "" {
			return false, nil
		}
		user, err := userRepo.GetBySubscriptionID(ctx, ev.SubscriptionID)
		if err != nil {
			return false, fmt.Errorf("obtener usuario por suscripción: %w", err)
		}
		if user == nil {
			return false, nil
		}
		acc := &user.Subscription
		switch ev.Type {
		case EventSubscriptionUpdated:
			acc.Sync(ev.Status, ev.PeriodEnd)
		case EventSubscriptionDeleted:
			acc.Cancel()
		case EventInvoicePaid:
			acc.MarkPaid()
		case EventInvoicePaymentFailed:
			acc.MarkPaymentFailed()
		}
		return true, userRepo.UpdateSubscription(ctx, user.ID, *acc)

	default:
		return false, nil
	}
}

// ── Expiración de pruebas y migración ───────────────────────────────────────

// ExpireTrials pasa a TRIAL_EXPIRED las pruebas vencidas, una actualización por usuario.
// Un fallo en un usuario no detiene al resto; se devuelve el primero.
func (s *Service) ExpireTrials(ctx context.Context) (int, error) {
	now := s.now()
	users, err := s.userRepo.ListTrialOverdue(ctx, domainsub.Day(now))
	if err != nil {
		return 0, fmt.Errorf("suscripción: listar pruebas vencidas: %w", err)
	}
	expired := 0
	var firstErr error
	for _, u := range users {
		if !u.Subscription.ExpireIfDue(now) {
			continue
		}
		if err := s.userRepo.UpdateSubscription(ctx, u.ID, u.Subscription); err != nil {
			s.log.Error().Err(err).Str("user_id", u.ID).Msg("no se pudo expirar la prueba")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expired++
	}
	s.log.Info().Int("expired", expired).Msg("barrido de pruebas completado")
	return expired, firstErr
}

// MigrateLegacyUsers completa estado y fechas de prueba de cuentas anteriores a la
// suscripción. Es idempotente: una segunda ejecución no cambia nada.
func (s *Service) MigrateLegacyUsers(ctx context.Context) (int, error) {
	records, err := s.userRepo.ListSubscriptionRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("suscripción: leer estados: %w", err)
	}
	now := s.now()
	migrated := 0
	for _, r := range records {
		acc, changed := domainsub.Backfill(r.RawStatus, r.Account, now)
		if !changed {
			continue
		}
		if err := s.userRepo.UpdateSubscription(ctx, r.UserID, acc); err != nil {
			return migrated, fmt.Errorf("suscripción: migrar %s: %w", r.UserID, err)
		}
		migrated++
		s.log.Debug().Str("user_id", r.UserID).Str("from", strings.TrimSpace(r.RawStatus)).Str("to", string(acc.Status)).Msg("usuario migrado")
	}
	if migrated > 0 {
		s.log.Info().Int("users", migrated).Msg("migración de suscripciones completada")
	}
	return migrated, nil
}

func (s *Service) user(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("suscripción: obtener usuario: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
