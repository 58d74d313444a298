package store

import (
	"context"
	"errors"

	"cardlink/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a signup reuses an existing email
var ErrDuplicateEmail = errors.New("email already registered")

// ProfileStore is the capability surface for customer accounts
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	GetProfileByID(ctx context.Context, id string) (*domain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
}

// OrderStore is the capability surface for orders
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	AttachCheckoutSession(ctx context.Context, orderID, sessionID string) error
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	MarkOrderProcessing(ctx context.Context, orderID, paymentIntentID string, shipping domain.ShippingAddress) error
}

// CardStore is the capability surface for provisioned NFC cards
type CardStore interface {
	CreateCard(ctx context.Context, card *domain.Card) error
	ListCardsByUser(ctx context.Context, userID string) ([]domain.Card, error)
	ListCardsByOrder(ctx context.Context, orderID string) ([]domain.Card, error)
}

// EventStore is the idempotency ledger for webhook deliveries
type EventStore interface {
	// MarkEventProcessed records the event id and reports whether this
	// delivery is the first one. A false return means the event was
	// already handled and must be skipped.
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Stores bundles the capabilities handlers depend on. Selected once at
// startup: SQL-backed in normal operation, in-memory in demo mode.
type Stores struct {
	Profiles ProfileStore
	Orders   OrderStore
	Cards    CardStore
	Events   EventStore
}
