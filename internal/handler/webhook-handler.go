package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardlink/internal/domain"
	"cardlink/internal/hub"
	"cardlink/internal/payment"
	"cardlink/internal/store"
)

// Stripe caps event payloads well below this
const maxWebhookBody = 65536

// handleStripeWebhook receives asynchronous payment notifications. Once the
// signature verifies, the response is always 200: the provider redelivers on
// non-2xx, and downstream failures here are logged rather than surfaced.
func (h *Handler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Failed to read webhook body", zap.Error(err))
		h.sendRawJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	event, err := h.payments.ParseWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.Warn("Webhook signature verification failed", zap.Error(err))
			h.sendRawJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid signature"})
			return
		}
		h.logger.Error("Failed to parse webhook event", zap.Error(err))
		h.sendRawJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if event.Type == payment.EventCheckoutSessionCompleted {
		h.processCheckoutCompleted(r, event)
	}

	h.sendRawJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) processCheckoutCompleted(r *http.Request, event *payment.WebhookEvent) {
	ctx := r.Context()

	// At-least-once delivery: only the first delivery of an event id
	// provisions anything
	first, err := h.stores.Events.MarkEventProcessed(ctx, event.ID, event.Type)
	if err != nil {
		h.logger.Error("Failed to record webhook event", zap.Error(err), zap.String("event_id", event.ID))
		return
	}
	if !first {
		h.logger.Info("Skipping already-processed webhook event", zap.String("event_id", event.ID))
		return
	}

	session := event.Session
	if session == nil {
		h.logger.Error("Checkout completion event without session payload", zap.String("event_id", event.ID))
		return
	}

	order, err := h.stores.Orders.GetOrderBySessionID(ctx, session.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Fall back to the order id embedded in the session metadata
			order, err = h.orderFromMetadata(r, session)
		}
		if err != nil {
			h.logger.Error("No order for completed checkout session",
				zap.Error(err),
				zap.String("session_id", session.ID))
			return
		}
	}

	if err := h.stores.Orders.MarkOrderProcessing(ctx, order.ID, session.PaymentIntentID, session.Shipping); err != nil {
		h.logger.Error("Failed to mark order processing",
			zap.Error(err),
			zap.String("order_id", order.ID))
		return
	}

	quantity := order.Quantity
	if q, err := strconv.Atoi(session.Metadata["quantity"]); err == nil && q >= 1 {
		quantity = q
	}

	provisioned := 0
	for i := 0; i < quantity; i++ {
		card := &domain.Card{
			ID:        uuid.New().String(),
			UserID:    order.UserID,
			OrderID:   order.ID,
			CardType:  order.CardType,
			CardColor: order.CardColor,
			CardStyle: order.CardStyle,
			NFCID:     domain.NewNFCID(),
		}
		if err := h.stores.Cards.CreateCard(ctx, card); err != nil {
			h.logger.Error("Failed to provision card",
				zap.Error(err),
				zap.String("order_id", order.ID),
				zap.Int("unit", i+1),
				zap.Int("of", quantity))
			continue
		}
		provisioned++
	}

	h.logger.Info("Order paid",
		zap.String("order_id", order.ID),
		zap.String("payment_intent_id", session.PaymentIntentID),
		zap.Int("cards_provisioned", provisioned),
		zap.Int("quantity", quantity))

	h.events.Publish(hub.Event{
		Type:    hub.EventOrderProcessing,
		UserID:  order.UserID,
		Payload: map[string]interface{}{"order_id": order.ID, "cards": provisioned},
	})
}

// orderFromMetadata recovers the order when the correlation key was never
// attached (a failure between session creation and the attach update)
func (h *Handler) orderFromMetadata(r *http.Request, session *payment.CheckoutSession) (*domain.Order, error) {
	orderID := session.Metadata["order_id"]
	if orderID == "" {
		return nil, store.ErrNotFound
	}

	order, err := h.stores.Orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		return nil, err
	}

	if err := h.stores.Orders.AttachCheckoutSession(r.Context(), order.ID, session.ID); err != nil {
		h.logger.Error("Failed to backfill checkout session id",
			zap.Error(err),
			zap.String("order_id", order.ID))
	}
	order.CheckoutSessionID = session.ID

	return order, nil
}
