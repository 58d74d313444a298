package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardlink/internal/domain"
	"cardlink/internal/payment"
)

func signUpTestUser(t *testing.T, h *Handler) (*domain.Profile, string) {
	t.Helper()
	profile, token, err := h.auth.SignUp(context.Background(), &domain.SignUpRequest{
		Email:       "aruzhan@example.com",
		Password:    "correct horse battery",
		DisplayName: "Aruzhan",
	})
	require.NoError(t, err)
	return profile, token
}

func doAuthed(t *testing.T, h *Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var resp Response
	raw := struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	resp.Success = raw.Success
	resp.Message = raw.Message
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return resp
}

func TestOrderFormRequiresAuth(t *testing.T) {
	h, _ := newTestHandler(&mockPaymentClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/order-form", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderFormWizardFlow(t *testing.T) {
	payments := &mockPaymentClient{
		createFunc: func(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
			return &payment.CheckoutSession{
				ID:       "cs_test_wizard",
				URL:      "https://checkout.example.com/cs_test_wizard",
				Metadata: params.Metadata(),
			}, nil
		},
	}
	h, mem := newTestHandler(payments)
	profile, token := signUpTestUser(t, h)

	// create
	var form domain.OrderForm
	rec := doAuthed(t, h, http.MethodPost, "/api/order-form", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &form)
	assert.Equal(t, domain.StepProductSelection, form.Step)
	assert.Equal(t, profile.ID, form.UserID)

	base := "/api/order-form/" + form.ID

	// advancing an empty form is rejected
	rec = doAuthed(t, h, http.MethodPost, base+"/next", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// product selection
	cardType, quantity := domain.CardTypePremium, 2
	rec = doAuthed(t, h, http.MethodPut, base, token, orderFormPatch{CardType: &cardType, Quantity: &quantity})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doAuthed(t, h, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &form)
	assert.Equal(t, domain.StepShippingDetails, form.Step)

	// quote is available once a card type is chosen
	var quote domain.PriceQuote
	rec = doAuthed(t, h, http.MethodGet, base+"/quote", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &quote)
	assert.True(t, quote.Total.IsPositive())

	// shipping details
	name, line1, city, country := "Aruzhan S.", "12 Dostyk Ave", "Almaty", "KZ"
	rec = doAuthed(t, h, http.MethodPut, base, token, orderFormPatch{
		ContactName:  &name,
		AddressLine1: &line1,
		City:         &city,
		Country:      &country,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAuthed(t, h, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &form)
	assert.Equal(t, domain.StepReview, form.Step)

	// submit hands off to checkout and destroys the form
	var result struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
		OrderID   string `json:"order_id"`
	}
	rec = doAuthed(t, h, http.MethodPost, base+"/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &result)
	assert.Equal(t, "cs_test_wizard", result.SessionID)
	require.NotEmpty(t, result.OrderID)

	order, err := mem.GetOrderByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, profile.ID, order.UserID)
	assert.Equal(t, 2, order.Quantity)

	rec = doAuthed(t, h, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "submitted form is gone")
}

func TestOrderFormSubmitBeforeReviewRejected(t *testing.T) {
	h, _ := newTestHandler(&mockPaymentClient{})
	_, token := signUpTestUser(t, h)

	var form domain.OrderForm
	rec := doAuthed(t, h, http.MethodPost, "/api/order-form", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &form)

	rec = doAuthed(t, h, http.MethodPost, "/api/order-form/"+form.ID+"/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderFormOwnership(t *testing.T) {
	h, _ := newTestHandler(&mockPaymentClient{})
	_, token := signUpTestUser(t, h)

	var form domain.OrderForm
	rec := doAuthed(t, h, http.MethodPost, "/api/order-form", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &form)

	_, otherToken, err := h.auth.SignUp(context.Background(), &domain.SignUpRequest{
		Email:       "intruder@example.com",
		Password:    "another password",
		DisplayName: "Intruder",
	})
	require.NoError(t, err)

	rec = doAuthed(t, h, http.MethodGet, "/api/order-form/"+form.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "forms are invisible to other users")
}
