package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cardlink/config"
	"cardlink/internal/auth"
	"cardlink/internal/hub"
	"cardlink/internal/payment"
	"cardlink/internal/store"
)

// Response represents the API response envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Handler struct {
	cfg      *config.Config
	logger   *zap.Logger
	stores   store.Stores
	payments payment.Client
	auth     *auth.Manager
	events   *hub.Hub
	forms    *formRegistry
}

func NewHandler(cfg *config.Config, logger *zap.Logger, stores store.Stores, payments payment.Client, authMgr *auth.Manager, events *hub.Hub) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		stores:   stores,
		payments: payments,
		auth:     authMgr,
		events:   events,
		forms:    newFormRegistry(),
	}
}

func (h *Handler) sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Message: message,
	})
}

// sendRawJSON writes responses whose shape is fixed by the external
// interface (checkout and webhook endpoints) rather than the envelope
func (h *Handler) sendRawJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// Middleware
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Router assembles the API surface
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(h.corsMiddleware)

	// Checkout and webhook (fixed external interface)
	r.HandleFunc("/api/create-checkout-session", h.handleCreateCheckoutSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/webhooks/stripe", h.handleStripeWebhook).Methods("POST")

	// Auth
	r.HandleFunc("/api/auth/signup", h.handleSignUp).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/signin", h.handleSignIn).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/signout", h.handleSignOut).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/me", h.handleMe).Methods("GET", "OPTIONS")

	// Account portal
	r.HandleFunc("/api/profile", h.handleGetProfile).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/profile", h.handleUpdateProfile).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/orders", h.handleListOrders).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/orders/{id}", h.handleGetOrder).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/cards", h.handleListCards).Methods("GET", "OPTIONS")

	// Order wizard
	r.HandleFunc("/api/order-form", h.handleCreateOrderForm).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}", h.handleGetOrderForm).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}", h.handleUpdateOrderForm).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}/next", h.handleOrderFormNext).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}/prev", h.handleOrderFormPrev).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}/quote", h.handleOrderFormQuote).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/order-form/{id}/submit", h.handleOrderFormSubmit).Methods("POST", "OPTIONS")

	// Event stream
	r.HandleFunc("/ws/events", h.handleEventsWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return r
}

// StartWebServer runs the HTTP server until ctx is cancelled
func (h *Handler) StartWebServer(ctx context.Context) {
	port := h.cfg.Port
	if !strings.Contains(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:         port,
		Handler:      h.Router(),
		ReadTimeout:  h.cfg.ReadTimeout,
		WriteTimeout: h.cfg.WriteTimeout,
		IdleTimeout:  h.cfg.IdleTimeout,
	}

	h.logger.Info("Starting web server", zap.String("port", port))
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Fatal("Failed to start web server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	h.logger.Info("Shutting down web server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		h.logger.Error("Server shutdown error", zap.Error(err))
	}
}
