package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	"github.com/jhoicas/appgestion-api/internal/domain/subscription"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, name, email, password_hash, role, active,
	subscription_status, stripe_customer_id, stripe_subscription_id,
	current_period_end, trial_start, trial_end, created_at, updated_at`

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, active,
			subscription_status, stripe_customer_id, stripe_subscription_id,
			current_period_end, trial_start, trial_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	acc := user.Subscription
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Active,
		nullIfEmpty(string(acc.Status)), nullIfEmpty(acc.CustomerID), nullIfEmpty(acc.SubscriptionID),
		acc.CurrentPeriodEnd, acc.TrialStart, acc.TrialEnd, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetBySubscriptionID usuario vinculado a una suscripción del proveedor.
func (r *UserRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.User, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_subscription_id = $1`, subscriptionID)
}

// UpdateSubscription sobrescribe el sub-registro de suscripción.
func (r *UserRepo) UpdateSubscription(ctx context.Context, userID string, acc subscription.Account) error {
	query := `
		UPDATE users SET subscription_status = $2, stripe_customer_id = $3, stripe_subscription_id = $4,
			current_period_end = $5, trial_start = $6, trial_end = $7, updated_at = NOW()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, userID,
		nullIfEmpty(string(acc.Status)), nullIfEmpty(acc.CustomerID), nullIfEmpty(acc.SubscriptionID),
		acc.CurrentPeriodEnd, acc.TrialStart, acc.TrialEnd,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// ListTrialOverdue usuarios en prueba cuya fecha fin es anterior a today.
func (r *UserRepo) ListTrialOverdue(ctx context.Context, today time.Time) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE subscription_status = $1 AND trial_end < $2
		ORDER BY trial_end`
	rows, err := r.q.Query(ctx, query, string(subscription.StatusTrialActive), today)
	if err != nil {
		return nil, fmt.Errorf("list trial overdue: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		u, _, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListSubscriptionRecords lee el estado sin interpretar de todos los usuarios.
func (r *UserRepo) ListSubscriptionRecords(ctx context.Context) ([]repository.SubscriptionRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscription records: %w", err)
	}
	defer rows.Close()

	var list []repository.SubscriptionRecord
	for rows.Next() {
		u, raw, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		acc := u.Subscription
		acc.Status = ""
		list = append(list, repository.SubscriptionRecord{UserID: u.ID, RawStatus: raw, Account: acc})
	}
	return list, rows.Err()
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u, _, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// scanUser lee una fila con userColumns. Devuelve también el estado tal cual está guardado.
func scanUser(row pgx.Row) (*entity.User, string, error) {
	var u entity.User
	var status, customerID, subscriptionID *string
	var periodEnd, trialStart, trialEnd *time.Time
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active,
		&status, &customerID, &subscriptionID, &periodEnd, &trialStart, &trialEnd,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("scan user: %w", err)
	}
	raw := derefString(status)
	parsed, _ := subscription.ParseStored(raw)
	u.Subscription = subscription.Account{
		Status:           parsed,
		CustomerID:       derefString(customerID),
		SubscriptionID:   derefString(subscriptionID),
		CurrentPeriodEnd: periodEnd,
		TrialStart:       dateOnly(trialStart),
		TrialEnd:         dateOnly(trialEnd),
	}
	return &u, raw, nil
}
