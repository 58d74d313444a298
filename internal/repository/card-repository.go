package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cardlink/internal/domain"

	"go.uber.org/zap"
)

type CardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewCardRepository(db *sql.DB, logger *zap.Logger) *CardRepository {
	return &CardRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCard inserts a provisioned card row
func (r *CardRepository) CreateCard(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (
			id, user_id, order_id, card_type, card_color, card_style, nfc_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	card.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		card.ID, card.UserID, card.OrderID, card.CardType,
		card.CardColor, card.CardStyle, card.NFCID, card.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create card",
			zap.Error(err),
			zap.String("card_id", card.ID),
			zap.String("order_id", card.OrderID))
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// ListCardsByUser retrieves a user's cards, newest first
func (r *CardRepository) ListCardsByUser(ctx context.Context, userID string) ([]domain.Card, error) {
	query := `
		SELECT id, user_id, order_id, card_type, card_color, card_style, nfc_id, created_at
		FROM cards
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 100`

	return r.queryCards(ctx, query, userID)
}

// ListCardsByOrder retrieves the cards provisioned for one order
func (r *CardRepository) ListCardsByOrder(ctx context.Context, orderID string) ([]domain.Card, error) {
	query := `
		SELECT id, user_id, order_id, card_type, card_color, card_style, nfc_id, created_at
		FROM cards
		WHERE order_id = ?`

	return r.queryCards(ctx, query, orderID)
}

func (r *CardRepository) queryCards(ctx context.Context, query string, arg any) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list cards", zap.Error(err))
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var card domain.Card
		err := rows.Scan(
			&card.ID, &card.UserID, &card.OrderID, &card.CardType,
			&card.CardColor, &card.CardStyle, &card.NFCID, &card.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list cards: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}
