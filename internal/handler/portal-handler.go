package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cardlink/internal/store"
)

// handleListOrders returns the signed-in user's orders, newest first. Reads
// always go back to the store; nothing is cached.
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.stores.Orders.ListOrdersByUser(r.Context(), profile.ID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err), zap.String("user_id", profile.ID))
		h.sendErrorResponse(w, "failed to list orders", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "", map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	orderID := mux.Vars(r)["id"]
	order, err := h.stores.Orders.GetOrderByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sendErrorResponse(w, "order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err), zap.String("order_id", orderID))
		h.sendErrorResponse(w, "failed to get order", http.StatusInternalServerError)
		return
	}

	if order.UserID != profile.ID && profile.Role != "admin" {
		h.sendErrorResponse(w, "order not found", http.StatusNotFound)
		return
	}

	cards, err := h.stores.Cards.ListCardsByOrder(r.Context(), order.ID)
	if err != nil {
		h.logger.Error("Failed to list order cards", zap.Error(err), zap.String("order_id", orderID))
		h.sendErrorResponse(w, "failed to get order", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "", map[string]interface{}{
		"order": order,
		"cards": cards,
	})
}

func (h *Handler) handleListCards(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	cards, err := h.stores.Cards.ListCardsByUser(r.Context(), profile.ID)
	if err != nil {
		h.logger.Error("Failed to list cards", zap.Error(err), zap.String("user_id", profile.ID))
		h.sendErrorResponse(w, "failed to list cards", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "", map[string]interface{}{
		"cards": cards,
		"count": len(cards),
	})
}
