package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardlink/config"
	"cardlink/internal/auth"
	"cardlink/internal/domain"
	"cardlink/internal/hub"
	"cardlink/internal/payment"
	"cardlink/internal/store"
)

// mockPaymentClient lets each test script the provider's behavior
type mockPaymentClient struct {
	createFunc func(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error)
	parseFunc  func(payload []byte, sigHeader string) (*payment.WebhookEvent, error)
}

func (m *mockPaymentClient) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	return m.createFunc(ctx, params)
}

func (m *mockPaymentClient) ParseWebhookEvent(payload []byte, sigHeader string) (*payment.WebhookEvent, error) {
	return m.parseFunc(payload, sigHeader)
}

func newTestHandler(payments payment.Client) (*Handler, *store.MemoryStores) {
	cfg := &config.Config{
		Port:       "8080",
		BaseURL:    "http://localhost:8080",
		Currency:   "usd",
		SessionTTL: time.Hour,
	}
	logger := zap.NewNop()
	mem := store.NewMemoryStores()
	events := hub.NewHub(logger)
	authMgr := auth.NewManager(mem, auth.NewMemorySessionStore(), events, cfg.SessionTTL, logger)
	return NewHandler(cfg, logger, mem.Stores(), payments, authMgr, events), mem
}

func postJSON(t *testing.T, h *Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestCreateCheckoutSession(t *testing.T) {
	var captured payment.CheckoutParams
	payments := &mockPaymentClient{
		createFunc: func(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
			captured = params
			return &payment.CheckoutSession{
				ID:       "cs_test_abc",
				URL:      "https://checkout.example.com/cs_test_abc",
				Metadata: params.Metadata(),
			}, nil
		},
	}
	h, mem := newTestHandler(payments)

	rec := postJSON(t, h, "/api/create-checkout-session", domain.CheckoutRequest{
		CardType:  domain.CardTypePremium,
		CardColor: "black",
		CardStyle: "matte",
		Quantity:  2,
		UserID:    "user-1",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "cs_test_abc", result.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_test_abc", result.URL)

	// session parameters
	assert.Equal(t, int64(5000), captured.UnitAmount)
	assert.Equal(t, int64(2), captured.Quantity)
	assert.Equal(t, "usd", captured.Currency)
	assert.Equal(t, "user-1", captured.UserID)

	// a pending order exists, correlated to the session
	order, err := mem.GetOrderBySessionID(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, 2, order.Quantity)
	assert.InDelta(t, 100.00, order.TotalAmount, 0.001)
	assert.Equal(t, captured.OrderID, order.ID)
}

func TestCreateCheckoutSessionRejectsUnknownCardType(t *testing.T) {
	payments := &mockPaymentClient{
		createFunc: func(_ context.Context, _ payment.CheckoutParams) (*payment.CheckoutSession, error) {
			t.Fatal("provider must not be called for invalid input")
			return nil, nil
		},
	}
	h, mem := newTestHandler(payments)

	rec := postJSON(t, h, "/api/create-checkout-session", domain.CheckoutRequest{
		CardType: "platinum",
		Quantity: 1,
		UserID:   "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.Error, "card type")

	orders, err := mem.ListOrdersByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders, "no order may be created for rejected input")
}

func TestCreateCheckoutSessionRejectsMissingFields(t *testing.T) {
	h, _ := newTestHandler(&mockPaymentClient{})

	for name, req := range map[string]domain.CheckoutRequest{
		"no user":       {CardType: domain.CardTypeBasic, Quantity: 1},
		"zero quantity": {CardType: domain.CardTypeBasic, Quantity: 0, UserID: "user-1"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/create-checkout-session", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateCheckoutSessionRepeatedCalls(t *testing.T) {
	n := 0
	payments := &mockPaymentClient{
		createFunc: func(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
			n++
			return &payment.CheckoutSession{
				ID:       fmt.Sprintf("cs_test_%d", n),
				URL:      fmt.Sprintf("https://checkout.example.com/cs_test_%d", n),
				Metadata: params.Metadata(),
			}, nil
		},
	}
	h, mem := newTestHandler(payments)

	req := domain.CheckoutRequest{
		CardType: domain.CardTypeBasic,
		Quantity: 1,
		UserID:   "user-1",
	}
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/create-checkout-session", req).Code)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/create-checkout-session", req).Code)

	// identical input yields two distinct sessions and two pending orders
	orders, err := mem.ListOrdersByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.NotEqual(t, orders[0].ID, orders[1].ID)
	assert.NotEqual(t, orders[0].CheckoutSessionID, orders[1].CheckoutSessionID)
}

func TestCreateCheckoutSessionProviderFailureCancelsOrder(t *testing.T) {
	payments := &mockPaymentClient{
		createFunc: func(_ context.Context, _ payment.CheckoutParams) (*payment.CheckoutSession, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	h, mem := newTestHandler(payments)

	rec := postJSON(t, h, "/api/create-checkout-session", domain.CheckoutRequest{
		CardType: domain.CardTypeBasic,
		Quantity: 1,
		UserID:   "user-1",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	orders, err := mem.ListOrdersByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusCancelled, orders[0].Status)
	assert.Empty(t, orders[0].CheckoutSessionID)
}
