package hub

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types published on the hub
const (
	EventOrderPending    = "order.pending"
	EventOrderProcessing = "order.processing"
	EventAuthSignedIn    = "auth.signed_in"
	EventAuthSignedOut   = "auth.signed_out"
)

const subscriberBuf = 16

// Event is one state-change notification
type Event struct {
	Type    string      `json:"type"`
	UserID  string      `json:"user_id"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Subscription receives events for one user until Close or until the
// subscriber falls behind
type Subscription struct {
	C      chan Event
	userID string
	hub    *Hub
	once   sync.Once
}

// Close detaches the subscription from the hub
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub broadcasts state changes to independent observers: websocket clients
// of the account portal and in-process listeners. Publish never blocks; a
// subscriber that cannot keep up is dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers an observer for one user's events
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriberBuf),
		userID: userID,
		hub:    h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}

	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	set, ok := h.subs[sub.userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
	sub.once.Do(func() { close(sub.C) })
}

// Publish fans an event out to the user's subscribers
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[event.UserID] {
		select {
		case sub.C <- event:
		default:
			// slow/dead subscriber -> drop it (prevents global slowdown)
			h.removeLocked(sub)
			h.logger.Warn("Dropped slow event subscriber",
				zap.String("user_id", event.UserID),
				zap.String("event", event.Type))
		}
	}
}
