package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/api/middleware"
	"github.com/kaisng/expense-tracker/internal/auth"
)

// AuthHandler serves the login and token-verification endpoints.
type AuthHandler struct {
	svc *auth.Service
	log zerolog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(svc *auth.Service, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.svc.Authenticate(req.Password)
	if err != nil {
		h.log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Login attempt with invalid password")
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.svc.Expiry().Minutes()),
	})
}

// Verify handles POST /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims, err := h.svc.VerifyToken(req.Token)
	if err != nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"valid": false})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"user":    claims.Subject,
		"expires": claims.ExpiresAt.Unix(),
	})
}
