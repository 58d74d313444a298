package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardlink/internal/domain"
	"cardlink/internal/hub"
	"cardlink/internal/payment"
)

// checkoutResult is the fixed response shape of the checkout endpoint
type checkoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type checkoutError struct {
	Error string `json:"error"`
}

// handleCreateCheckoutSession creates a pending order and a hosted payment
// session, returning the redirect URL
func (h *Handler) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse checkout request", zap.Error(err))
		h.sendRawJSON(w, http.StatusBadRequest, checkoutError{Error: "invalid request body"})
		return
	}

	if err := req.Validate(); err != nil {
		h.sendRawJSON(w, http.StatusBadRequest, checkoutError{Error: err.Error()})
		return
	}

	session, _, err := h.createCheckout(r.Context(), &req)
	if err != nil {
		h.sendRawJSON(w, http.StatusInternalServerError, checkoutError{Error: err.Error()})
		return
	}

	h.sendRawJSON(w, http.StatusOK, checkoutResult{SessionID: session.ID, URL: session.URL})
}

// createCheckout is the core checkout sequence, shared with the wizard
// submit path. The pending order is recorded before the payment provider is
// contacted, so a session-creation failure never leaves an external session
// without a local order; the order is cancelled instead.
func (h *Handler) createCheckout(ctx context.Context, req *domain.CheckoutRequest) (*payment.CheckoutSession, *domain.Order, error) {
	unitAmount := domain.UnitAmount(req.CardType)

	order := &domain.Order{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Status:      domain.OrderStatusPending,
		CardType:    req.CardType,
		CardColor:   req.CardColor,
		CardStyle:   req.CardStyle,
		Quantity:    req.Quantity,
		TotalAmount: float64(unitAmount*int64(req.Quantity)) / 100,
	}

	if err := h.stores.Orders.CreateOrder(ctx, order); err != nil {
		return nil, nil, err
	}

	session, err := h.payments.CreateCheckoutSession(ctx, payment.CheckoutParams{
		OrderID:     order.ID,
		UserID:      req.UserID,
		CardType:    req.CardType,
		CardColor:   req.CardColor,
		CardStyle:   req.CardStyle,
		Quantity:    int64(req.Quantity),
		UnitAmount:  unitAmount,
		Currency:    h.cfg.Currency,
		ProductName: fmt.Sprintf("CardLink %s NFC card", req.CardType),
	})
	if err != nil {
		// Compensate: the order never reached the provider
		if cancelErr := h.stores.Orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled); cancelErr != nil {
			h.logger.Error("Failed to cancel order after session failure",
				zap.Error(cancelErr),
				zap.String("order_id", order.ID))
		}
		return nil, nil, err
	}

	if err := h.stores.Orders.AttachCheckoutSession(ctx, order.ID, session.ID); err != nil {
		// The hosted session exists but the correlation key was not
		// recorded; the webhook can still recover via the order_id in
		// the session metadata, so surface the failure loudly.
		h.logger.Error("Failed to attach checkout session to order",
			zap.Error(err),
			zap.String("order_id", order.ID),
			zap.String("session_id", session.ID))
		return nil, nil, err
	}
	order.CheckoutSessionID = session.ID

	h.logger.Info("Checkout started",
		zap.String("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.String("user_id", req.UserID),
		zap.Float64("total", order.TotalAmount))

	h.events.Publish(hub.Event{
		Type:    hub.EventOrderPending,
		UserID:  req.UserID,
		Payload: order,
	})

	return session, order, nil
}
