package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cardlink/internal/domain"
	"cardlink/internal/store"

	"go.uber.org/zap"
)

type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, user_id, status, card_type, card_color, card_style, quantity,
	total_amount, shipping_name, shipping_line1, shipping_line2,
	shipping_city, shipping_postal_code, shipping_country,
	checkout_session_id, payment_intent_id, created_at, updated_at`

// CreateOrder inserts a new order row
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, status, card_type, card_color, card_style, quantity,
			total_amount, shipping_name, shipping_line1, shipping_line2,
			shipping_city, shipping_postal_code, shipping_country,
			checkout_session_id, payment_intent_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.Status, order.CardType, order.CardColor,
		order.CardStyle, order.Quantity, order.TotalAmount,
		order.Shipping.Name, order.Shipping.Line1, order.Shipping.Line2,
		order.Shipping.City, order.Shipping.PostalCode, order.Shipping.Country,
		order.CheckoutSessionID, order.PaymentIntentID, now, now,
	)

	if err != nil {
		r.logger.Error("Failed to create order",
			zap.Error(err),
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID))
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetOrderByID retrieves an order by its id
func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return r.scanOrder(r.db.QueryRowContext(ctx, query, id))
}

// GetOrderBySessionID retrieves the order correlated with a checkout session
func (r *OrderRepository) GetOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, store.ErrNotFound
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_session_id = ?`
	return r.scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
}

func (r *OrderRepository) scanOrder(row *sql.Row) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID, &order.UserID, &order.Status, &order.CardType,
		&order.CardColor, &order.CardStyle, &order.Quantity, &order.TotalAmount,
		&order.Shipping.Name, &order.Shipping.Line1, &order.Shipping.Line2,
		&order.Shipping.City, &order.Shipping.PostalCode, &order.Shipping.Country,
		&order.CheckoutSessionID, &order.PaymentIntentID,
		&order.CreatedAt, &order.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// ListOrdersByUser retrieves a user's orders, newest first
func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 100`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(
			&order.ID, &order.UserID, &order.Status, &order.CardType,
			&order.CardColor, &order.CardStyle, &order.Quantity, &order.TotalAmount,
			&order.Shipping.Name, &order.Shipping.Line1, &order.Shipping.Line2,
			&order.Shipping.City, &order.Shipping.PostalCode, &order.Shipping.Country,
			&order.CheckoutSessionID, &order.PaymentIntentID,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// AttachCheckoutSession records the correlation key once the hosted session
// exists
func (r *OrderRepository) AttachCheckoutSession(ctx context.Context, orderID, sessionID string) error {
	query := `
		UPDATE orders SET
			checkout_session_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, sessionID, orderID)
	if err != nil {
		r.logger.Error("Failed to attach checkout session",
			zap.Error(err),
			zap.String("order_id", orderID),
			zap.String("session_id", sessionID))
		return fmt.Errorf("failed to attach checkout session: %w", err)
	}

	return requireAffected(res)
}

// UpdateOrderStatus transitions an order to a new status
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	query := `
		UPDATE orders SET
			status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, status, orderID)
	if err != nil {
		r.logger.Error("Failed to update order status",
			zap.Error(err),
			zap.String("order_id", orderID),
			zap.String("status", status))
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return requireAffected(res)
}

// MarkOrderProcessing flips a paid order to processing, recording the
// payment intent and, when collected, the shipping address
func (r *OrderRepository) MarkOrderProcessing(ctx context.Context, orderID, paymentIntentID string, shipping domain.ShippingAddress) error {
	if shipping.IsZero() {
		query := `
			UPDATE orders SET
				status = ?, payment_intent_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`

		res, err := r.db.ExecContext(ctx, query, domain.OrderStatusProcessing, paymentIntentID, orderID)
		if err != nil {
			r.logger.Error("Failed to mark order processing", zap.Error(err), zap.String("order_id", orderID))
			return fmt.Errorf("failed to mark order processing: %w", err)
		}
		return requireAffected(res)
	}

	query := `
		UPDATE orders SET
			status = ?, payment_intent_id = ?,
			shipping_name = ?, shipping_line1 = ?, shipping_line2 = ?,
			shipping_city = ?, shipping_postal_code = ?, shipping_country = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		domain.OrderStatusProcessing, paymentIntentID,
		shipping.Name, shipping.Line1, shipping.Line2,
		shipping.City, shipping.PostalCode, shipping.Country,
		orderID,
	)
	if err != nil {
		r.logger.Error("Failed to mark order processing", zap.Error(err), zap.String("order_id", orderID))
		return fmt.Errorf("failed to mark order processing: %w", err)
	}

	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
