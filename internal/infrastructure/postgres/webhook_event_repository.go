package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

var _ repository.WebhookEventRepository = (*WebhookEventRepo)(nil)

// WebhookEventRepo ids de eventos del proveedor de pagos ya aplicados.
type WebhookEventRepo struct {
	q Querier
}

func NewWebhookEventRepository(q Querier) *WebhookEventRepo {
	return &WebhookEventRepo{q: q}
}

func (r *WebhookEventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed_webhook_events WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("webhook event exists: %w", err)
	}
	return exists, nil
}

func (r *WebhookEventRepo) Record(ctx context.Context, eventID string, processedAt time.Time) error {
	query := `INSERT INTO processed_webhook_events (event_id, processed_at) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, eventID, processedAt); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}
