package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// WebhookEventRepository is the idempotency ledger for payment webhooks.
// Providers deliver at least once; the primary key on event_id makes the
// second delivery a no-op.
type WebhookEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewWebhookEventRepository(db *sql.DB, logger *zap.Logger) *WebhookEventRepository {
	return &WebhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// MarkEventProcessed records the event id and reports whether this delivery
// is the first one
func (r *WebhookEventRepository) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT OR IGNORE INTO webhook_events (event_id, event_type)
		VALUES (?, ?)`

	res, err := r.db.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		r.logger.Error("Failed to record webhook event",
			zap.Error(err),
			zap.String("event_id", eventID))
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	return affected > 0, nil
}
