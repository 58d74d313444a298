package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"cardlink/internal/domain"
)

// MemoryStores is the demo-mode backend: same shapes as the database, kept
// in process memory, gone on restart.
type MemoryStores struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	orders   map[string]domain.Order
	cards    map[string]domain.Card
	events   map[string]string
}

// NewMemoryStores builds an empty in-memory backend
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		profiles: make(map[string]domain.Profile),
		orders:   make(map[string]domain.Order),
		cards:    make(map[string]domain.Card),
		events:   make(map[string]string),
	}
}

// Stores exposes the memory backend through the capability bundle
func (m *MemoryStores) Stores() Stores {
	return Stores{Profiles: m, Orders: m, Cards: m, Events: m}
}

func (m *MemoryStores) CreateProfile(_ context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == profile.Email {
			return ErrDuplicateEmail
		}
	}
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MemoryStores) GetProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStores) GetProfileByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Email == email {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStores) UpdateProfile(_ context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.ID]; !ok {
		return ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	m.profiles[profile.ID] = *profile
	return nil
}

func (m *MemoryStores) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryStores) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *MemoryStores) GetOrderBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sessionID == "" {
		return nil, ErrNotFound
	}
	for _, o := range m.orders {
		if o.CheckoutSessionID == sessionID {
			out := o
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStores) ListOrdersByUser(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *MemoryStores) AttachCheckoutSession(_ context.Context, orderID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.CheckoutSessionID = sessionID
	o.UpdatedAt = time.Now()
	m.orders[orderID] = o
	return nil
}

func (m *MemoryStores) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	m.orders[orderID] = o
	return nil
}

func (m *MemoryStores) MarkOrderProcessing(_ context.Context, orderID, paymentIntentID string, shipping domain.ShippingAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = domain.OrderStatusProcessing
	o.PaymentIntentID = paymentIntentID
	if !shipping.IsZero() {
		o.Shipping = shipping
	}
	o.UpdatedAt = time.Now()
	m.orders[orderID] = o
	return nil
}

func (m *MemoryStores) CreateCard(_ context.Context, card *domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = *card
	return nil
}

func (m *MemoryStores) ListCardsByUser(_ context.Context, userID string) ([]domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cards []domain.Card
	for _, c := range m.cards {
		if c.UserID == userID {
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CreatedAt.After(cards[j].CreatedAt)
	})
	return cards, nil
}

func (m *MemoryStores) ListCardsByOrder(_ context.Context, orderID string) ([]domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cards []domain.Card
	for _, c := range m.cards {
		if c.OrderID == orderID {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

func (m *MemoryStores) MarkEventProcessed(_ context.Context, eventID, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; ok {
		return false, nil
	}
	m.events[eventID] = eventType
	return true, nil
}
