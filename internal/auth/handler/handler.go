// Package handler exposes the token endpoint of the credentials flow.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"callvault/internal/auth"
	"callvault/pkg/platform/httputil"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (*auth.TokenResult, error)
}

// Handler wires the token endpoint to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auth handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the token endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/token", h.HandleToken)
}

// TokenRequest is the POST /auth/token payload.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// HandleToken handles POST /auth/token.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[TokenRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Authenticate(r.Context(), req.ClientID, req.ClientSecret)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
