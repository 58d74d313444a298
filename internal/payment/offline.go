package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfflineClient is the demo-mode payment variant: fake hosted sessions,
// nothing charged. Webhook verification uses the same t=...,v1=... HMAC
// scheme as the real provider so the receiving path is identical.
type OfflineClient struct {
	webhookSecret string
	baseURL       string
	logger        *zap.Logger
}

// NewOfflineClient configures the offline payment client
func NewOfflineClient(webhookSecret, baseURL string, logger *zap.Logger) *OfflineClient {
	if webhookSecret == "" {
		webhookSecret = "whsec_demo"
	}
	return &OfflineClient{
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// CreateCheckoutSession fabricates a demo session instead of calling out
func (c *OfflineClient) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*CheckoutSession, error) {
	id := "cs_demo_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	c.logger.Info("Demo checkout session created",
		zap.String("session_id", id),
		zap.String("order_id", params.OrderID),
		zap.Int64("amount", params.UnitAmount*params.Quantity))

	return &CheckoutSession{
		ID:       id,
		URL:      c.baseURL + "/demo/checkout/" + id,
		Metadata: params.Metadata(),
	}, nil
}

type offlineEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent verifies the signature header and decodes the event
func (c *OfflineClient) ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if err := VerifySignature(payload, sigHeader, c.webhookSecret); err != nil {
		return nil, err
	}

	var event offlineEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: event.Type,
	}

	if strings.HasPrefix(event.Type, "checkout.session.") && len(event.Data.Object) > 0 {
		session, err := parseSessionPayload(event.Data.Object)
		if err != nil {
			return nil, err
		}
		out.Session = session
	}

	return out, nil
}

// SignPayload produces a signature header for payload in the provider's
// t=<unix>,v1=<hmac-sha256(t "." payload)> format
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks a signature header produced by SignPayload
func VerifySignature(payload []byte, sigHeader, secret string) error {
	var ts string
	var sigs []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}

	if ts == "" || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}
