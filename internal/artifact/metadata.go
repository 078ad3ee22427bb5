package artifact

import (
	"encoding/json"
	"fmt"

	dErrors "callvault/pkg/domain-errors"
)

// Metadata is the typed payload of an artifact. Each artifact type has its
// own variant with an explicit schema, validated at the boundary, instead of
// an untyped JSON blob threaded through business logic.
type Metadata interface {
	Kind() Type
	Validate() error
}

// RecordingMetadata describes a captured call recording.
type RecordingMetadata struct {
	RecordingSID    string `json:"recording_sid"`
	RecordingURL    string `json:"recording_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (RecordingMetadata) Kind() Type { return TypeRecording }

func (m RecordingMetadata) Validate() error {
	if m.RecordingSID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "recording metadata requires a recording_sid")
	}
	if m.DurationSeconds < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "recording duration must not be negative")
	}
	return nil
}

// TranscriptMetadata describes a speech-to-text result.
type TranscriptMetadata struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Model    string `json:"model,omitempty"`
}

func (TranscriptMetadata) Kind() Type { return TypeTranscript }

func (m TranscriptMetadata) Validate() error {
	if m.Language == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "transcript metadata requires a language")
	}
	return nil
}

// TranslationMetadata describes a translated transcript.
type TranslationMetadata struct {
	FromLanguage string `json:"from_language"`
	ToLanguage   string `json:"to_language"`
	Text         string `json:"text,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (TranslationMetadata) Kind() Type { return TypeTranslation }

func (m TranslationMetadata) Validate() error {
	if m.FromLanguage == "" || m.ToLanguage == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "translation metadata requires both language codes")
	}
	return nil
}

// CriterionResult is one scored criterion inside a score artifact.
type CriterionResult struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Score  int    `json:"score"`
}

// ScoreMetadata describes a scorecard evaluation result.
type ScoreMetadata struct {
	ScorecardID string            `json:"scorecard_id"`
	Total       int               `json:"total"`
	Criteria    []CriterionResult `json:"criteria"`
}

func (ScoreMetadata) Kind() Type { return TypeScore }

func (m ScoreMetadata) Validate() error {
	if m.ScorecardID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "score metadata requires a scorecard_id")
	}
	if m.Total < 0 || m.Total > 100 {
		return dErrors.New(dErrors.CodeInvalidInput, "score total must be between 0 and 100")
	}
	return nil
}

// ManifestRef is one evidence reference inside a manifest.
type ManifestRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ManifestMetadata is the canonical evidence bundle for a call: references to
// the artifacts it aggregates plus an integrity hash over them.
type ManifestMetadata struct {
	ManifestID   string        `json:"manifest_id"`
	Artifacts    []ManifestRef `json:"artifacts"`
	ManifestHash string        `json:"manifest_hash"`
}

func (ManifestMetadata) Kind() Type { return TypeManifest }

func (m ManifestMetadata) Validate() error {
	if m.ManifestID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "manifest metadata requires a manifest_id")
	}
	if m.ManifestHash == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "manifest metadata requires a manifest_hash")
	}
	for i, ref := range m.Artifacts {
		if ref.Type == "" || ref.ID == "" {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("manifest artifact ref %d is incomplete", i))
		}
	}
	return nil
}

// metadataEnvelope is the stored representation: the kind tag selects the
// variant on decode.
type metadataEnvelope struct {
	Kind Type            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeMetadata validates and serializes a metadata variant.
func EncodeMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s metadata: %w", m.Kind(), err)
	}
	return json.Marshal(metadataEnvelope{Kind: m.Kind(), Data: data})
}

// DecodeMetadata deserializes a stored metadata envelope back into its
// typed variant.
func DecodeMetadata(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var envelope metadataEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal metadata envelope: %w", err)
	}

	var target Metadata
	switch envelope.Kind {
	case TypeRecording:
		target = &RecordingMetadata{}
	case TypeTranscript:
		target = &TranscriptMetadata{}
	case TypeTranslation:
		target = &TranslationMetadata{}
	case TypeScore:
		target = &ScoreMetadata{}
	case TypeManifest:
		target = &ManifestMetadata{}
	default:
		return nil, fmt.Errorf("unknown metadata kind %q", envelope.Kind)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s metadata: %w", envelope.Kind, err)
	}
	return deref(target), nil
}

func deref(m Metadata) Metadata {
	switch v := m.(type) {
	case *RecordingMetadata:
		return *v
	case *TranscriptMetadata:
		return *v
	case *TranslationMetadata:
		return *v
	case *ScoreMetadata:
		return *v
	case *ManifestMetadata:
		return *v
	default:
		return m
	}
}
