package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardlink/internal/domain"
	"cardlink/internal/hub"
	"cardlink/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for a wrong email or password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when a request carries no valid session
	ErrUnauthorized = errors.New("unauthorized")
)

// Manager owns sign-up/sign-in/sign-out and session resolution. Auth state
// changes are broadcast on the hub so portal views stay in sync.
type Manager struct {
	profiles   store.ProfileStore
	sessions   SessionStore
	events     *hub.Hub
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewManager wires the auth manager
func NewManager(profiles store.ProfileStore, sessions SessionStore, events *hub.Hub, sessionTTL time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		profiles:   profiles,
		sessions:   sessions,
		events:     events,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SignUp creates a profile and opens a session for it
func (m *Manager) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &domain.Profile{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: req.DisplayName,
		Role:        "customer",
		Password:    string(hash),
	}

	if err := m.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, "", err
	}

	token, err := m.openSession(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	m.logger.Info("Profile created", zap.String("user_id", profile.ID))
	return profile, token, nil
}

// SignIn opens a session for an existing profile
func (m *Manager) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	profile, err := m.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := m.openSession(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	return profile, token, nil
}

func (m *Manager) openSession(ctx context.Context, profile *domain.Profile) (string, error) {
	token := uuid.New().String()
	if err := m.sessions.Save(ctx, token, profile.ID, m.sessionTTL); err != nil {
		return "", err
	}

	m.events.Publish(hub.Event{
		Type:    hub.EventAuthSignedIn,
		UserID:  profile.ID,
		Payload: map[string]string{"email": profile.Email},
	})

	return token, nil
}

// SignOut destroys the session carried by the request, if any
func (m *Manager) SignOut(ctx context.Context, r *http.Request) error {
	token := bearerToken(r)
	if token == "" {
		return nil
	}

	userID, err := m.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := m.sessions.Delete(ctx, token); err != nil {
		return err
	}

	m.events.Publish(hub.Event{
		Type:   hub.EventAuthSignedOut,
		UserID: userID,
	})

	return nil
}

// UserFromRequest resolves the bearer token to a profile
func (m *Manager) UserFromRequest(ctx context.Context, r *http.Request) (*domain.Profile, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, err := m.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	profile, err := m.profiles.GetProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return profile, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

// SeedDemoProfile inserts the demo-mode account so the portal is usable
// without a configured backend. Credentials: demo@cardlink.local / demo-mode.
func SeedDemoProfile(ctx context.Context, profiles store.ProfileStore) (*domain.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-mode"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:          uuid.New().String(),
		Email:       "demo@cardlink.local",
		DisplayName: "Demo User",
		Role:        "customer",
		Password:    string(hash),
	}

	if err := profiles.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
