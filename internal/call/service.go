package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"callvault/internal/artifact"
	"callvault/internal/audit"
	"callvault/internal/jobs"
	"callvault/internal/provider"
	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// Service drives the call lifecycle and initiates evidence producers.
type Service struct {
	store    Store
	provider provider.Provider
	recorder *artifact.Recorder
	ledger   *audit.Ledger
	queue    jobs.Queue
	logger   *slog.Logger
}

// NewService constructs the call service.
func NewService(store Store, p provider.Provider, recorder *artifact.Recorder, ledger *audit.Ledger, queue jobs.Queue, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		provider: p,
		recorder: recorder,
		ledger:   ledger,
		queue:    queue,
		logger:   logger,
	}
}

// StartRequest is the input for Start.
type StartRequest struct {
	PhoneNumber string      `json:"phone_number"`
	Modulations Modulations `json:"modulations"`
}

// callSnapshot is the ledger representation of a call.
type callSnapshot struct {
	CallID      string      `json:"call_id"`
	Status      string      `json:"status"`
	PhoneNumber string      `json:"phone_number"`
	CallSID     string      `json:"call_sid,omitempty"`
	Modulations Modulations `json:"modulations"`
}

// Start creates a call row, declares any regulated intents, and dials through
// the provider. Recording intent lands before the dial so the recording
// artifact can never predate it.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Call, error) {
	if requestcontext.UserID(ctx).IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "starting a call requires an authenticated user")
	}
	if req.PhoneNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "phone_number is required")
	}
	if err := req.Modulations.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()
	c := Call{
		ID:          id.NewCallID(),
		OrgID:       requestcontext.OrgID(ctx),
		Status:      StatusPending,
		PhoneNumber: req.PhoneNumber,
		Modulations: req.Modulations,
		CreatedBy:   requestcontext.UserID(ctx),
		CreatedAt:   now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert call: %w", err)
	}

	if req.Modulations.Record {
		if err := s.ledger.RecordIntent(ctx, audit.ActionIntentRecording, ResourceType, uuid.UUID(c.ID), map[string]string{
			"phone_number": req.PhoneNumber,
		}); err != nil {
			return nil, fmt.Errorf("record recording intent: %w", err)
		}
	}

	dialed, err := s.provider.Dial(ctx, provider.DialRequest{
		To:     req.PhoneNumber,
		Record: req.Modulations.Record,
	})
	if err != nil {
		if markErr := s.store.MarkFailed(ctx, c.OrgID, c.ID); markErr != nil {
			s.logger.ErrorContext(ctx, "mark call failed",
				slog.String("call_id", c.ID.String()),
				slog.String("error", markErr.Error()),
			)
		}
		return nil, fmt.Errorf("dial provider: %w", err)
	}

	if err := s.store.MarkDialed(ctx, c.OrgID, c.ID, dialed.CallSID, now); err != nil {
		return nil, fmt.Errorf("mark call dialed: %w", err)
	}
	c.Status = StatusInProgress
	c.CallSID = dialed.CallSID
	c.StartedAt = &now

	if err := s.ledger.RecordExecution(ctx, audit.ActionCreate, ResourceType, uuid.UUID(c.ID), nil, callSnapshot{
		CallID:      c.ID.String(),
		Status:      string(c.Status),
		PhoneNumber: c.PhoneNumber,
		CallSID:     c.CallSID,
		Modulations: c.Modulations,
	}); err != nil {
		return nil, fmt.Errorf("record call creation: %w", err)
	}

	s.logger.InfoContext(ctx, "call started",
		slog.String("call_id", c.ID.String()),
		slog.String("call_sid", c.CallSID),
	)
	return &c, nil
}

// Detail is the full evidentiary view of one call.
type Detail struct {
	Call      Call
	Artifacts []artifact.Artifact
	Manifest  *artifact.Artifact
}

// Get returns the call with all its artifact versions and the current
// manifest, if one has been built.
func (s *Service) Get(ctx context.Context, callID id.CallID) (*Detail, error) {
	c, err := s.store.Get(ctx, requestcontext.OrgID(ctx), callID)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.recorder.ListByCall(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("list call artifacts: %w", err)
	}

	detail := Detail{Call: *c, Artifacts: artifacts}
	manifest, err := s.recorder.Latest(ctx, callID, artifact.TypeManifest)
	switch {
	case err == nil:
		detail.Manifest = manifest
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	return &detail, nil
}

// AttachRecording records a completed recording delivered by the provider
// callback and refreshes the call's manifest.
func (s *Service) AttachRecording(ctx context.Context, callID id.CallID, meta artifact.RecordingMetadata) (*artifact.Artifact, error) {
	if _, err := s.store.Get(ctx, requestcontext.OrgID(ctx), callID); err != nil {
		return nil, err
	}

	rec, err := s.recorder.Create(ctx, artifact.NewArtifact{
		CallID:   callID,
		Type:     artifact.TypeRecording,
		Producer: artifact.ProducerModel,
		Metadata: meta,
		Status:   artifact.StatusComplete,
	})
	if err != nil {
		return nil, fmt.Errorf("create recording artifact: %w", err)
	}

	if _, err := s.recorder.BuildManifest(ctx, callID); err != nil {
		return nil, fmt.Errorf("rebuild manifest: %w", err)
	}
	return rec, nil
}

// RequestTranscription declares intent and queues a transcription of the
// given recording artifact. The transcript artifact is returned queued; the
// worker finalizes it.
func (s *Service) RequestTranscription(ctx context.Context, recordingID id.ArtifactID, lang string) (*artifact.Artifact, error) {
	if err := validateLanguage(lang); err != nil {
		return nil, err
	}

	recording, err := s.recorder.Get(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if recording.Type != artifact.TypeRecording {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "artifact is not a recording")
	}
	recMeta, ok := recording.Metadata.(artifact.RecordingMetadata)
	if !ok || recording.Status != artifact.StatusComplete {
		return nil, dErrors.New(dErrors.CodeConflict, "recording is not complete yet")
	}

	if err := s.ledger.RecordIntent(ctx, audit.ActionIntentTranscription, ResourceType, uuid.UUID(recording.CallID), map[string]string{
		"recording_id": recordingID.String(),
		"language":     lang,
	}); err != nil {
		return nil, fmt.Errorf("record transcription intent: %w", err)
	}

	transcript, err := s.recorder.Create(ctx, artifact.NewArtifact{
		CallID:   recording.CallID,
		Type:     artifact.TypeTranscript,
		Producer: artifact.ProducerModel,
		Inputs:   []id.ArtifactID{recordingID},
		Status:   artifact.StatusQueued,
	})
	if err != nil {
		return nil, fmt.Errorf("create transcript artifact: %w", err)
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Kind:       jobs.KindTranscription,
		OrgID:      transcript.OrgID,
		CallID:     transcript.CallID,
		ArtifactID: transcript.ID,
		Transcribe: &provider.TranscribeRequest{
			RecordingSID: recMeta.RecordingSID,
			Language:     lang,
		},
	}); err != nil {
		// A queued artifact with no job behind it would never finalize.
		if failErr := s.recorder.Complete(ctx, transcript.ID, artifact.StatusFailed, nil, audit.ActionExecTranscription); failErr != nil {
			s.logger.ErrorContext(ctx, "mark transcript failed after enqueue rejection",
				slog.String("artifact_id", transcript.ID.String()),
				slog.String("error", failErr.Error()),
			)
		}
		return nil, fmt.Errorf("enqueue transcription: %w", err)
	}
	return transcript, nil
}

// RequestTranslation declares intent and queues a translation of the call's
// latest complete transcript.
func (s *Service) RequestTranslation(ctx context.Context, callID id.CallID, from, to string) (*artifact.Artifact, error) {
	if err := validateLanguage(from); err != nil {
		return nil, err
	}
	if err := validateLanguage(to); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, requestcontext.OrgID(ctx), callID); err != nil {
		return nil, err
	}

	transcript, err := s.recorder.Latest(ctx, callID, artifact.TypeTranscript)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeConflict, "call has no transcript to translate")
		}
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	transcriptMeta, ok := transcript.Metadata.(artifact.TranscriptMetadata)
	if !ok || transcript.Status != artifact.StatusComplete {
		return nil, dErrors.New(dErrors.CodeConflict, "transcript is not complete yet")
	}

	if err := s.ledger.RecordIntent(ctx, audit.ActionIntentTranslation, ResourceType, uuid.UUID(callID), map[string]string{
		"from_language": from,
		"to_language":   to,
	}); err != nil {
		return nil, fmt.Errorf("record translation intent: %w", err)
	}

	translation, err := s.recorder.Create(ctx, artifact.NewArtifact{
		CallID:   callID,
		Type:     artifact.TypeTranslation,
		Producer: artifact.ProducerModel,
		Inputs:   []id.ArtifactID{transcript.ID},
		Metadata: artifact.TranslationMetadata{FromLanguage: from, ToLanguage: to},
		Status:   artifact.StatusQueued,
	})
	if err != nil {
		return nil, fmt.Errorf("create translation artifact: %w", err)
	}

	if err := s.queue.Enqueue(ctx, jobs.Job{
		Kind:       jobs.KindTranslation,
		OrgID:      translation.OrgID,
		CallID:     callID,
		ArtifactID: translation.ID,
		Translate: &provider.TranslateRequest{
			Text:         transcriptMeta.Text,
			FromLanguage: from,
			ToLanguage:   to,
		},
	}); err != nil {
		if failErr := s.recorder.Complete(ctx, translation.ID, artifact.StatusFailed, nil, audit.ActionExecTranslation); failErr != nil {
			s.logger.ErrorContext(ctx, "mark translation failed after enqueue rejection",
				slog.String("artifact_id", translation.ID.String()),
				slog.String("error", failErr.Error()),
			)
		}
		return nil, fmt.Errorf("enqueue translation: %w", err)
	}
	return translation, nil
}

// Activity returns the newest ledger entries for one call, limit-bounded.
func (s *Service) Activity(ctx context.Context, callID id.CallID, limit int) ([]audit.Entry, error) {
	if _, err := s.store.Get(ctx, requestcontext.OrgID(ctx), callID); err != nil {
		return nil, err
	}
	return s.ledger.ListByResource(ctx, ResourceType, uuid.UUID(callID), limit)
}

// PutVoiceConfig validates and stores the organization's default modulations.
func (s *Service) PutVoiceConfig(ctx context.Context, mods Modulations) (*VoiceConfig, error) {
	if err := mods.Validate(); err != nil {
		return nil, err
	}
	cfg := VoiceConfig{
		OrgID:       requestcontext.OrgID(ctx),
		Modulations: mods,
		UpdatedAt:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.UpsertVoiceConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store voice config: %w", err)
	}
	return &cfg, nil
}

// GetVoiceConfig returns the stored voice configuration, or the zero default
// when none has been saved.
func (s *Service) GetVoiceConfig(ctx context.Context) (*VoiceConfig, error) {
	cfg, err := s.store.GetVoiceConfig(ctx, requestcontext.OrgID(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		return &VoiceConfig{OrgID: requestcontext.OrgID(ctx)}, nil
	}
	return cfg, err
}
