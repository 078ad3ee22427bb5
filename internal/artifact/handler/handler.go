// Package handler exposes artifact read and promotion endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"callvault/internal/artifact"
	id "callvault/pkg/domain"
	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
	"callvault/pkg/platform/sentinel"
)

// Service defines the artifact operations the handler needs.
type Service interface {
	Get(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error)
	Lineage(ctx context.Context, artifactID id.ArtifactID) ([]artifact.Artifact, error)
	Promote(ctx context.Context, artifactID id.ArtifactID) (*artifact.Artifact, error)
}

// Handler wires artifact endpoints to the recorder.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an artifact handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts artifact endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/artifacts/{artifactID}", h.HandleGet)
	r.Get("/artifacts/{artifactID}/lineage", h.HandleLineage)
	r.Post("/artifacts/{artifactID}/promote", h.HandlePromote)
}

// ArtifactResponse is the JSON view of one artifact version.
type ArtifactResponse struct {
	ID              string            `json:"id"`
	CallID          string            `json:"call_id"`
	Type            string            `json:"type"`
	Producer        string            `json:"producer"`
	IsAuthoritative bool              `json:"is_authoritative"`
	Version         int               `json:"version"`
	ParentID        *string           `json:"parent_id,omitempty"`
	Inputs          []string          `json:"inputs,omitempty"`
	Metadata        artifact.Metadata `json:"metadata,omitempty"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ToResponse maps an artifact to its JSON view.
func ToResponse(a artifact.Artifact) ArtifactResponse {
	resp := ArtifactResponse{
		ID:              a.ID.String(),
		CallID:          a.CallID.String(),
		Type:            string(a.Type),
		Producer:        string(a.Producer),
		IsAuthoritative: a.IsAuthoritative,
		Version:         a.Version,
		Metadata:        a.Metadata,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
	}
	if a.ParentID != nil {
		parent := a.ParentID.String()
		resp.ParentID = &parent
	}
	for _, input := range a.Inputs {
		resp.Inputs = append(resp.Inputs, input.String())
	}
	return resp
}

// HandleGet handles GET /artifacts/{artifactID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	artifactID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), artifactID)
	if err != nil {
		h.writeLookupError(w, r, artifactID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToResponse(*a))
}

// HandleLineage handles GET /artifacts/{artifactID}/lineage.
func (h *Handler) HandleLineage(w http.ResponseWriter, r *http.Request) {
	artifactID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	chain, err := h.service.Lineage(r.Context(), artifactID)
	if err != nil {
		h.writeLookupError(w, r, artifactID, err)
		return
	}

	versions := make([]ArtifactResponse, 0, len(chain))
	for _, a := range chain {
		versions = append(versions, ToResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"lineage": versions})
}

// HandlePromote handles POST /artifacts/{artifactID}/promote.
func (h *Handler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	artifactID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	promoted, err := h.service.Promote(r.Context(), artifactID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ToResponse(*promoted))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.ArtifactID, bool) {
	artifactID, err := id.ParseArtifactID(chi.URLParam(r, "artifactID"))
	if err != nil {
		httputil.WriteError(w, r, h.logger, errctx.Validation("invalid artifact id",
			errctx.Differential{
				Expected: "a UUID path parameter",
				Actual:   chi.URLParam(r, "artifactID"),
			},
			errctx.WithRequest(r),
		))
		return id.ArtifactID{}, false
	}
	return artifactID, true
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, artifactID id.ArtifactID, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, r, h.logger, errctx.NotFound("artifact not found",
			errctx.Differential{
				Expected: "an artifact visible to this organization",
				Actual:   "no row for " + artifactID.String(),
			},
			errctx.WithRequest(r),
		))
		return
	}
	httputil.WriteError(w, r, h.logger, err)
}
