// Package handler exposes scorecard management and call scoring endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"callvault/internal/artifact"
	artifacthandler "callvault/internal/artifact/handler"
	"callvault/internal/scoring"
	id "callvault/pkg/domain"
	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
)

// Service defines the scoring operations the handler needs.
type Service interface {
	CreateScorecard(ctx context.Context, name string, criteria []scoring.Criterion) (*scoring.Scorecard, error)
	ListScorecards(ctx context.Context) ([]scoring.Scorecard, error)
	ScoreCall(ctx context.Context, callID id.CallID, cardID id.ScorecardID) (*artifact.Artifact, error)
}

// Handler wires scoring endpoints to the scoring service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a scoring handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts scoring endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/scorecards", h.HandleCreateScorecard)
	r.Get("/scorecards", h.HandleListScorecards)
	r.Post("/calls/{callID}/score", h.HandleScoreCall)
}

// ScorecardRequest is the POST /scorecards payload.
type ScorecardRequest struct {
	Name     string              `json:"name"`
	Criteria []scoring.Criterion `json:"criteria"`
}

// ScorecardResponse is the JSON view of a scorecard.
type ScorecardResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Criteria  []scoring.Criterion `json:"criteria"`
	CreatedAt time.Time           `json:"created_at"`
}

func toScorecardResponse(card scoring.Scorecard) ScorecardResponse {
	return ScorecardResponse{
		ID:        card.ID.String(),
		Name:      card.Name,
		Criteria:  card.Criteria,
		CreatedAt: card.CreatedAt,
	}
}

// HandleCreateScorecard handles POST /scorecards.
func (h *Handler) HandleCreateScorecard(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[ScorecardRequest](w, r, h.logger)
	if !ok {
		return
	}

	card, err := h.service.CreateScorecard(r.Context(), req.Name, req.Criteria)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toScorecardResponse(*card))
}

// HandleListScorecards handles GET /scorecards.
func (h *Handler) HandleListScorecards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.ListScorecards(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}

	resp := make([]ScorecardResponse, 0, len(cards))
	for _, card := range cards {
		resp = append(resp, toScorecardResponse(card))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"scorecards": resp})
}

// ScoreCallRequest is the POST /calls/{callID}/score payload.
type ScoreCallRequest struct {
	ScorecardID string `json:"scorecard_id"`
}

// HandleScoreCall handles POST /calls/{callID}/score.
func (h *Handler) HandleScoreCall(w http.ResponseWriter, r *http.Request) {
	callID, err := id.ParseCallID(chi.URLParam(r, "callID"))
	if err != nil {
		httputil.WriteError(w, r, h.logger, errctx.Validation("invalid call id",
			errctx.Differential{
				Expected: "a UUID path parameter",
				Actual:   chi.URLParam(r, "callID"),
			},
			errctx.WithRequest(r),
		))
		return
	}
	req, ok := httputil.DecodeJSON[ScoreCallRequest](w, r, h.logger)
	if !ok {
		return
	}
	cardID, err := id.ParseScorecardID(req.ScorecardID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, errctx.Validation("invalid scorecard id",
			errctx.Differential{
				Expected: "a UUID scorecard_id",
				Actual:   req.ScorecardID,
			},
			errctx.WithRequest(r),
		))
		return
	}

	score, err := h.service.ScoreCall(r.Context(), callID, cardID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, artifacthandler.ToResponse(*score))
}
