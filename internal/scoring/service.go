package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"callvault/internal/artifact"
	"callvault/internal/audit"
	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// Service scores call evidence against scorecards and records the result as
// a score artifact, refreshing the call's manifest.
type Service struct {
	cards    Store
	recorder *artifact.Recorder
	ledger   *audit.Ledger
	logger   *slog.Logger
}

// NewService constructs the scoring service.
func NewService(cards Store, recorder *artifact.Recorder, ledger *audit.Ledger, logger *slog.Logger) *Service {
	return &Service{
		cards:    cards,
		recorder: recorder,
		ledger:   ledger,
		logger:   logger,
	}
}

// CreateScorecard validates and stores a new scorecard definition.
func (s *Service) CreateScorecard(ctx context.Context, name string, criteria []Criterion) (*Scorecard, error) {
	card := Scorecard{
		ID:        id.NewScorecardID(),
		OrgID:     requestcontext.OrgID(ctx),
		Name:      name,
		Criteria:  criteria,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	if err := s.cards.Insert(ctx, card); err != nil {
		return nil, fmt.Errorf("create scorecard: %w", err)
	}
	return &card, nil
}

// GetScorecard returns one scorecard, organization-scoped.
func (s *Service) GetScorecard(ctx context.Context, cardID id.ScorecardID) (*Scorecard, error) {
	return s.cards.Get(ctx, requestcontext.OrgID(ctx), cardID)
}

// ListScorecards returns the organization's scorecards, newest first.
func (s *Service) ListScorecards(ctx context.Context) ([]Scorecard, error) {
	return s.cards.List(ctx, requestcontext.OrgID(ctx))
}

// ScoreCall evaluates the call's latest complete transcript against the
// scorecard, declares intent first, records the score artifact with its
// provenance inputs, and rebuilds the call's manifest so the new score is
// part of the evidence bundle.
func (s *Service) ScoreCall(ctx context.Context, callID id.CallID, cardID id.ScorecardID) (*artifact.Artifact, error) {
	card, err := s.cards.Get(ctx, requestcontext.OrgID(ctx), cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scorecard not found")
		}
		return nil, fmt.Errorf("load scorecard: %w", err)
	}

	transcript, err := s.recorder.Latest(ctx, callID, artifact.TypeTranscript)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeConflict, "call has no transcript to score")
		}
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if transcript.Status != artifact.StatusComplete {
		return nil, dErrors.New(dErrors.CodeConflict, "transcript is not complete yet")
	}
	transcriptMeta, ok := transcript.Metadata.(artifact.TranscriptMetadata)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "transcript artifact has no transcript metadata")
	}

	evidence := Evidence{TranscriptText: transcriptMeta.Text}
	inputs := []id.ArtifactID{transcript.ID}
	if recording, err := s.recorder.Latest(ctx, callID, artifact.TypeRecording); err == nil {
		if meta, ok := recording.Metadata.(artifact.RecordingMetadata); ok {
			evidence.DurationSeconds = meta.DurationSeconds
		}
		inputs = append(inputs, recording.ID)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load recording: %w", err)
	}

	if err := s.ledger.RecordIntent(ctx, audit.ActionIntentScoring, "call", uuid.UUID(callID), map[string]string{
		"scorecard_id": card.ID.String(),
	}); err != nil {
		return nil, fmt.Errorf("record scoring intent: %w", err)
	}

	result := Evaluate(*card, evidence)
	score, err := s.recorder.Create(ctx, artifact.NewArtifact{
		CallID:   callID,
		Type:     artifact.TypeScore,
		Producer: artifact.ProducerModel,
		Inputs:   inputs,
		Metadata: result,
		Status:   artifact.StatusComplete,
	})
	if err != nil {
		return nil, fmt.Errorf("create score artifact: %w", err)
	}

	if err := s.ledger.RecordExecution(ctx, audit.ActionExecScoring, "call", uuid.UUID(callID), nil, result); err != nil {
		return nil, fmt.Errorf("record scoring execution: %w", err)
	}

	// The evidentiary picture changed: the manifest must supersede, never
	// mutate, so earlier manifest fetches stay valid.
	if _, err := s.recorder.BuildManifest(ctx, callID); err != nil {
		return nil, fmt.Errorf("rebuild manifest: %w", err)
	}

	s.logger.InfoContext(ctx, "call scored",
		slog.String("call_id", callID.String()),
		slog.String("scorecard_id", card.ID.String()),
		slog.Int("total", result.Total),
	)
	return score, nil
}
