// Package handler exposes the call lifecycle endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"callvault/internal/artifact"
	artifacthandler "callvault/internal/artifact/handler"
	"callvault/internal/audit"
	"callvault/internal/call"
	id "callvault/pkg/domain"
	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// Service defines the call operations the handler needs.
type Service interface {
	Start(ctx context.Context, req call.StartRequest) (*call.Call, error)
	Get(ctx context.Context, callID id.CallID) (*call.Detail, error)
	AttachRecording(ctx context.Context, callID id.CallID, meta artifact.RecordingMetadata) (*artifact.Artifact, error)
	RequestTranscription(ctx context.Context, recordingID id.ArtifactID, lang string) (*artifact.Artifact, error)
	RequestTranslation(ctx context.Context, callID id.CallID, from, to string) (*artifact.Artifact, error)
	Activity(ctx context.Context, callID id.CallID, limit int) ([]audit.Entry, error)
	PutVoiceConfig(ctx context.Context, mods call.Modulations) (*call.VoiceConfig, error)
	GetVoiceConfig(ctx context.Context) (*call.VoiceConfig, error)
}

// Handler wires call endpoints to the call service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a call handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts call endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/calls", h.HandleStart)
	r.Get("/calls/{callID}", h.HandleGet)
	r.Post("/calls/{callID}/recording", h.HandleAttachRecording)
	r.Post("/calls/{callID}/translation", h.HandleTranslation)
	r.Get("/calls/{callID}/activity", h.HandleActivity)
	r.Post("/recordings/{recordingID}/transcription", h.HandleTranscription)
	r.Get("/call-capabilities", h.HandleCapabilities)
	r.Put("/voice/config", h.HandlePutVoiceConfig)
	r.Get("/voice/config", h.HandleGetVoiceConfig)
}

// CallResponse is the JSON view of a call.
type CallResponse struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	PhoneNumber string           `json:"phone_number"`
	CallSID     string           `json:"call_sid,omitempty"`
	Modulations call.Modulations `json:"modulations"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	EndedAt     *time.Time       `json:"ended_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toCallResponse(c call.Call) CallResponse {
	return CallResponse{
		ID:          c.ID.String(),
		Status:      string(c.Status),
		PhoneNumber: c.PhoneNumber,
		CallSID:     c.CallSID,
		Modulations: c.Modulations,
		StartedAt:   c.StartedAt,
		EndedAt:     c.EndedAt,
		CreatedAt:   c.CreatedAt,
	}
}

// HandleStart handles POST /calls.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[call.StartRequest](w, r, h.logger)
	if !ok {
		return
	}

	started, err := h.service.Start(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCallResponse(*started))
}

// HandleGet handles GET /calls/{callID}: the call, its artifact versions, and
// the current manifest.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callID, ok := h.callID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), callID)
	if err != nil {
		h.writeCallError(w, r, callID, err)
		return
	}

	artifacts := make([]artifacthandler.ArtifactResponse, 0, len(detail.Artifacts))
	for _, a := range detail.Artifacts {
		artifacts = append(artifacts, artifacthandler.ToResponse(a))
	}
	resp := map[string]any{
		"call":      toCallResponse(detail.Call),
		"artifacts": artifacts,
	}
	if detail.Manifest != nil {
		resp["manifest"] = artifacthandler.ToResponse(*detail.Manifest)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// AttachRecordingRequest is the provider callback payload.
type AttachRecordingRequest struct {
	RecordingSID    string `json:"recording_sid"`
	RecordingURL    string `json:"recording_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// HandleAttachRecording handles POST /calls/{callID}/recording.
func (h *Handler) HandleAttachRecording(w http.ResponseWriter, r *http.Request) {
	callID, ok := h.callID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[AttachRecordingRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.AttachRecording(r.Context(), callID, artifact.RecordingMetadata{
		RecordingSID:    req.RecordingSID,
		RecordingURL:    req.RecordingURL,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		h.writeCallError(w, r, callID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, artifacthandler.ToResponse(*rec))
}

// TranslationRequest is the POST /calls/{callID}/translation payload.
type TranslationRequest struct {
	FromLanguage string `json:"from_language"`
	ToLanguage   string `json:"to_language"`
}

// HandleTranslation handles POST /calls/{callID}/translation. The response is
// cached by the idempotency layer, so a replayed request observes the same
// translation id without a second job.
func (h *Handler) HandleTranslation(w http.ResponseWriter, r *http.Request) {
	callID, ok := h.callID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[TranslationRequest](w, r, h.logger)
	if !ok {
		return
	}

	translation, err := h.service.RequestTranslation(r.Context(), callID, req.FromLanguage, req.ToLanguage)
	if err != nil {
		h.writeCallError(w, r, callID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":         string(translation.Status),
		"translation_id": translation.ID.String(),
	})
}

// TranscriptionRequest is the POST /recordings/{recordingID}/transcription
// payload.
type TranscriptionRequest struct {
	Language string `json:"language"`
}

// HandleTranscription handles POST /recordings/{recordingID}/transcription.
func (h *Handler) HandleTranscription(w http.ResponseWriter, r *http.Request) {
	recordingID, err := id.ParseArtifactID(chi.URLParam(r, "recordingID"))
	if err != nil {
		httputil.WriteError(w, r, h.logger, errctx.Validation("invalid recording id",
			errctx.Differential{
				Expected: "a UUID path parameter",
				Actual:   chi.URLParam(r, "recordingID"),
			},
			errctx.WithRequest(r),
		))
		return
	}
	req, ok := httputil.DecodeJSON[TranscriptionRequest](w, r, h.logger)
	if !ok {
		return
	}

	transcript, err := h.service.RequestTranscription(r.Context(), recordingID, req.Language)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":        string(transcript.Status),
		"transcript_id": transcript.ID.String(),
	})
}

// ActivityEntry is the JSON view of one ledger entry.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorType string    `json:"actor_type"`
	ActorID   string    `json:"actor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleActivity handles GET /calls/{callID}/activity.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	callID, ok := h.callID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, r, h.logger, errctx.Validation("invalid limit",
				errctx.Differential{
					Expected: "a non-negative integer",
					Actual:   raw,
				},
				errctx.WithRequest(r),
			))
			return
		}
		limit = parsed
	}

	entries, err := h.service.Activity(r.Context(), callID, limit)
	if err != nil {
		h.writeCallError(w, r, callID, err)
		return
	}

	activity := make([]ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		activity = append(activity, ActivityEntry{
			ID:        entry.ID.String(),
			Action:    entry.Action,
			ActorType: string(entry.ActorType),
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": activity})
}

// HandleCapabilities handles GET /call-capabilities.
func (h *Handler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	plan := requestcontext.Plan(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"capabilities": call.CapabilitiesForPlan(plan),
	})
}

// VoiceConfigRequest is the PUT /voice/config payload.
type VoiceConfigRequest struct {
	Modulations call.Modulations `json:"modulations"`
}

// HandlePutVoiceConfig handles PUT /voice/config.
func (h *Handler) HandlePutVoiceConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[VoiceConfigRequest](w, r, h.logger)
	if !ok {
		return
	}

	cfg, err := h.service.PutVoiceConfig(r.Context(), req.Modulations)
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"modulations": cfg.Modulations,
		"updated_at":  cfg.UpdatedAt,
	})
}

// HandleGetVoiceConfig handles GET /voice/config.
func (h *Handler) HandleGetVoiceConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetVoiceConfig(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"modulations": cfg.Modulations,
		"updated_at":  cfg.UpdatedAt,
	})
}

func (h *Handler) callID(w http.ResponseWriter, r *http.Request) (id.CallID, bool) {
	callID, err := id.ParseCallID(chi.URLParam(r, "callID"))
	if err != nil {
		httputil.WriteError(w, r, h.logger, errctx.Validation("invalid call id",
			errctx.Differential{
				Expected: "a UUID path parameter",
				Actual:   chi.URLParam(r, "callID"),
			},
			errctx.WithRequest(r),
		))
		return id.CallID{}, false
	}
	return callID, true
}

func (h *Handler) writeCallError(w http.ResponseWriter, r *http.Request, callID id.CallID, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, r, h.logger, errctx.NotFound("call not found",
			errctx.Differential{
				Expected: "a call visible to this organization",
				Actual:   "no row for " + callID.String(),
			},
			errctx.WithRequest(r),
		))
		return
	}
	httputil.WriteError(w, r, h.logger, err)
}
