package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cardlink/internal/auth"
	"cardlink/internal/domain"
	"cardlink/internal/store"
)

type sessionResponse struct {
	Token string          `json:"token"`
	User  *domain.Profile `json:"user"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.auth.SignUp(r.Context(), &req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			h.sendErrorResponse(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("Sign-up failed", zap.Error(err))
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.sendSuccessResponse(w, "account created", sessionResponse{Token: token, User: profile})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.auth.SignIn(r.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.sendErrorResponse(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("Sign-in failed", zap.Error(err))
		h.sendErrorResponse(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "signed in", sessionResponse{Token: token, User: profile})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), r); err != nil {
		h.logger.Error("Sign-out failed", zap.Error(err))
		h.sendErrorResponse(w, "sign-out failed", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "signed out", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	h.sendSuccessResponse(w, "", profile)
}

// requireUser resolves the request's session or writes a 401
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*domain.Profile, bool) {
	profile, err := h.auth.UserFromRequest(r.Context(), r)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			h.sendErrorResponse(w, "unauthorized", http.StatusUnauthorized)
			return nil, false
		}
		h.logger.Error("Failed to resolve session", zap.Error(err))
		h.sendErrorResponse(w, "session lookup failed", http.StatusInternalServerError)
		return nil, false
	}
	return profile, true
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	h.sendSuccessResponse(w, "", profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.DisplayName == "" {
		h.sendErrorResponse(w, "display name is required", http.StatusBadRequest)
		return
	}

	profile.DisplayName = req.DisplayName
	if err := h.stores.Profiles.UpdateProfile(r.Context(), profile); err != nil {
		h.logger.Error("Failed to update profile", zap.Error(err), zap.String("user_id", profile.ID))
		h.sendErrorResponse(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	h.sendSuccessResponse(w, "profile updated", profile)
}
