package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cardlink/internal/domain"
)

// Abandoned wizards are swept after this long
const formTTL = 2 * time.Hour

// formRegistry holds in-progress order wizards. Forms are ephemeral by
// contract: per-user, in memory only, gone on submit or expiry.
type formRegistry struct {
	mu    sync.Mutex
	forms map[string]*domain.OrderForm
}

func newFormRegistry() *formRegistry {
	return &formRegistry{forms: make(map[string]*domain.OrderForm)}
}

func (reg *formRegistry) create(userID string) *domain.OrderForm {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	// opportunistic sweep of abandoned forms
	cutoff := time.Now().Add(-formTTL)
	for id, f := range reg.forms {
		if f.UpdatedAt.Before(cutoff) {
			delete(reg.forms, id)
		}
	}

	form := domain.NewOrderForm(uuid.New().String(), userID)
	reg.forms[form.ID] = form
	return form
}

func (reg *formRegistry) get(id, userID string) (*domain.OrderForm, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	form, ok := reg.forms[id]
	if !ok || form.UserID != userID {
		return nil, false
	}
	return form, true
}

func (reg *formRegistry) remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.forms, id)
}

// orderFormPatch carries partial field updates; nil means "leave as is"
type orderFormPatch struct {
	CardType       *string `json:"card_type"`
	CardColor      *string `json:"card_color"`
	CardStyle      *string `json:"card_style"`
	Quantity       *int    `json:"quantity"`
	ShippingMethod *string `json:"shipping_method"`
	ContactName    *string `json:"contact_name"`
	AddressLine1   *string `json:"address_line1"`
	AddressLine2   *string `json:"address_line2"`
	City           *string `json:"city"`
	PostalCode     *string `json:"postal_code"`
	Country        *string `json:"country"`
}

func (h *Handler) handleCreateOrderForm(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	form := h.forms.create(profile.ID)
	h.sendSuccessResponse(w, "order form created", form)
}

// formFromRequest resolves the wizard addressed by the URL or writes a 404
func (h *Handler) formFromRequest(w http.ResponseWriter, r *http.Request) (*domain.OrderForm, bool) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return nil, false
	}

	form, ok := h.forms.get(mux.Vars(r)["id"], profile.ID)
	if !ok {
		h.sendErrorResponse(w, "order form not found", http.StatusNotFound)
		return nil, false
	}
	return form, true
}

func (h *Handler) handleGetOrderForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	h.sendSuccessResponse(w, "", form)
}

func (h *Handler) handleUpdateOrderForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	var patch orderFormPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.sendErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if form.Complete {
		h.sendErrorResponse(w, "order already submitted", http.StatusConflict)
		return
	}

	applyPatch(form, &patch)
	form.UpdatedAt = time.Now()

	h.sendSuccessResponse(w, "order form updated", form)
}

func applyPatch(form *domain.OrderForm, patch *orderFormPatch) {
	if patch.CardType != nil {
		form.CardType = *patch.CardType
	}
	if patch.CardColor != nil {
		form.CardColor = *patch.CardColor
	}
	if patch.CardStyle != nil {
		form.CardStyle = *patch.CardStyle
	}
	if patch.Quantity != nil {
		form.Quantity = *patch.Quantity
	}
	if patch.ShippingMethod != nil {
		form.ShippingMethod = *patch.ShippingMethod
	}
	if patch.ContactName != nil {
		form.ContactName = *patch.ContactName
	}
	if patch.AddressLine1 != nil {
		form.AddressLine1 = *patch.AddressLine1
	}
	if patch.AddressLine2 != nil {
		form.AddressLine2 = *patch.AddressLine2
	}
	if patch.City != nil {
		form.City = *patch.City
	}
	if patch.PostalCode != nil {
		form.PostalCode = *patch.PostalCode
	}
	if patch.Country != nil {
		form.Country = *patch.Country
	}
}

func (h *Handler) handleOrderFormNext(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	if err := form.NextStep(); err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.sendSuccessResponse(w, "", form)
}

func (h *Handler) handleOrderFormPrev(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	form.PrevStep()
	h.sendSuccessResponse(w, "", form)
}

func (h *Handler) handleOrderFormQuote(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	if !domain.ValidCardType(form.CardType) {
		h.sendErrorResponse(w, "select a card type first", http.StatusBadRequest)
		return
	}

	h.sendSuccessResponse(w, "", form.Quote())
}

// handleOrderFormSubmit validates the completed wizard and hands off to the
// checkout sequence. On success the ephemeral form is destroyed; on failure
// it stays at the review step so the user can retry.
func (h *Handler) handleOrderFormSubmit(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	if err := form.ValidateForSubmit(); err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := form.CheckoutRequest()
	session, order, err := h.createCheckout(r.Context(), &req)
	if err != nil {
		h.logger.Error("Wizard submit failed", zap.Error(err), zap.String("form_id", form.ID))
		h.sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	form.MarkComplete(session.ID)
	h.forms.remove(form.ID)

	h.sendSuccessResponse(w, "order submitted", map[string]interface{}{
		"sessionId": session.ID,
		"url":       session.URL,
		"order_id":  order.ID,
		"quote":     form.Quote(),
	})
}
