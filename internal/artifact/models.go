// Package artifact is the versioned evidence model. Evidence is never edited
// in place: any change to the evidentiary picture creates a new artifact row
// linked to its parent, so a consumer who fetched version N can re-fetch it
// unchanged at any later time.
package artifact

import (
	"time"

	id "callvault/pkg/domain"
)

// Type classifies a unit of evidence.
type Type string

const (
	TypeRecording   Type = "recording"
	TypeTranscript  Type = "transcript"
	TypeTranslation Type = "translation"
	TypeScore       Type = "score"
	TypeManifest    Type = "manifest"
)

// Producer states who generated the artifact.
type Producer string

const (
	ProducerHuman Producer = "human"
	ProducerModel Producer = "model"
)

// Status tracks operational progress of asynchronous producers. Status is the
// only mutable column; evidence content and version are immutable.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Artifact is one versioned unit of evidence. Inputs reference the artifacts
// consumed to produce this one, forming a provenance DAG.
type Artifact struct {
	ID              id.ArtifactID
	OrgID           id.OrgID
	CallID          id.CallID
	Type            Type
	Producer        Producer
	IsAuthoritative bool
	Version         int
	ParentID        *id.ArtifactID
	Inputs          []id.ArtifactID
	Metadata        Metadata
	Status          Status
	CreatedAt       time.Time
}

// NewArtifact carries the caller-supplied fields for Recorder.Create.
type NewArtifact struct {
	CallID   id.CallID
	Type     Type
	Producer Producer
	Inputs   []id.ArtifactID
	Metadata Metadata
	Status   Status
	// Authoritative is honored for human producers only; model-produced
	// artifacts always start non-authoritative and require an explicit
	// promotion.
	Authoritative bool
}
