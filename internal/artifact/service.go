package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"callvault/internal/audit"
	"callvault/internal/platform/metrics"
	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// ResourceType is the ledger resource type for artifact entries.
const ResourceType = "artifact"

// Recorder is the write path for evidence. Every mutation lands a ledger
// entry alongside the artifact row.
type Recorder struct {
	store   Store
	ledger  *audit.Ledger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRecorder constructs the artifact service.
func NewRecorder(store Store, ledger *audit.Ledger, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		ledger:  ledger,
		metrics: m,
		logger:  logger,
	}
}

// snapshot is the ledger representation of an artifact version.
type snapshot struct {
	ArtifactID      string `json:"artifact_id"`
	Type            string `json:"type"`
	Producer        string `json:"producer"`
	Version         int    `json:"version"`
	IsAuthoritative bool   `json:"is_authoritative"`
	Status          string `json:"status"`
}

func snapshotOf(a Artifact) snapshot {
	return snapshot{
		ArtifactID:      a.ID.String(),
		Type:            string(a.Type),
		Producer:        string(a.Producer),
		Version:         a.Version,
		IsAuthoritative: a.IsAuthoritative,
		Status:          string(a.Status),
	}
}

// Create inserts a new root artifact at version 1. Model-produced artifacts
// always start non-authoritative regardless of the requested flag; a human
// reviewer promotes them explicitly.
func (r *Recorder) Create(ctx context.Context, in NewArtifact) (*Artifact, error) {
	if err := validateNew(in); err != nil {
		return nil, err
	}

	authoritative := in.Authoritative
	if in.Producer == ProducerModel {
		authoritative = false
	}
	status := in.Status
	if status == "" {
		status = StatusComplete
	}

	a := Artifact{
		ID:              id.NewArtifactID(),
		OrgID:           requestcontext.OrgID(ctx),
		CallID:          in.CallID,
		Type:            in.Type,
		Producer:        in.Producer,
		IsAuthoritative: authoritative,
		Version:         1,
		Inputs:          in.Inputs,
		Metadata:        in.Metadata,
		Status:          status,
		CreatedAt:       requestcontext.Now(ctx).UTC(),
	}

	if err := r.store.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	if err := r.ledger.RecordExecution(ctx, audit.ActionCreate, ResourceType, uuid.UUID(a.ID), nil, snapshotOf(a)); err != nil {
		return nil, fmt.Errorf("record artifact creation: %w", err)
	}

	r.metrics.ArtifactsCreated.WithLabelValues(string(a.Type), string(a.Producer)).Inc()
	r.logger.InfoContext(ctx, "artifact created",
		slog.String("artifact_id", a.ID.String()),
		slog.String("type", string(a.Type)),
		slog.String("producer", string(a.Producer)),
	)
	return &a, nil
}

// NewVersion carries the caller-supplied fields for Supersede. Org, call,
// type, and version derive from the parent row.
type NewVersion struct {
	Producer      Producer
	Inputs        []id.ArtifactID
	Metadata      Metadata
	Status        Status
	Authoritative bool
}

// Supersede appends a new version under parentID. The previous version stays
// readable forever; the loser of a concurrent supersede on the same parent
// gets a conflict instead of a duplicated version number.
func (r *Recorder) Supersede(ctx context.Context, parentID id.ArtifactID, in NewVersion) (*Artifact, error) {
	if in.Producer != ProducerHuman && in.Producer != ProducerModel {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown artifact producer")
	}

	authoritative := in.Authoritative
	if in.Producer == ProducerModel {
		authoritative = false
	}
	status := in.Status
	if status == "" {
		status = StatusComplete
	}

	orgID := requestcontext.OrgID(ctx)
	parent, err := r.store.Get(ctx, orgID, parentID)
	if err != nil {
		return nil, fmt.Errorf("load superseded artifact: %w", err)
	}
	if in.Metadata != nil && in.Metadata.Kind() != parent.Type {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "metadata kind does not match artifact type")
	}

	child := Artifact{
		ID:              id.NewArtifactID(),
		Producer:        in.Producer,
		IsAuthoritative: authoritative,
		Inputs:          in.Inputs,
		Metadata:        in.Metadata,
		Status:          status,
		CreatedAt:       requestcontext.Now(ctx).UTC(),
	}

	inserted, err := r.store.InsertChild(ctx, orgID, parentID, child)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			r.metrics.SupersedeConflicts.Inc()
		}
		return nil, fmt.Errorf("supersede artifact: %w", err)
	}

	if err := r.ledger.RecordExecution(ctx, audit.ActionUpdate, ResourceType, uuid.UUID(parentID), snapshotOf(*parent), snapshotOf(*inserted)); err != nil {
		return nil, fmt.Errorf("record supersede: %w", err)
	}

	r.metrics.ArtifactsCreated.WithLabelValues(string(inserted.Type), string(inserted.Producer)).Inc()
	r.logger.InfoContext(ctx, "artifact superseded",
		slog.String("parent_id", parentID.String()),
		slog.String("artifact_id", inserted.ID.String()),
		slog.Int("version", inserted.Version),
	)
	return inserted, nil
}

// Promote appends a human-authoritative version over a model-produced
// artifact, carrying its metadata forward. Promotion is itself a supersede,
// never an in-place flag flip.
func (r *Recorder) Promote(ctx context.Context, artifactID id.ArtifactID) (*Artifact, error) {
	if requestcontext.UserID(ctx).IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "promotion requires a human reviewer")
	}

	current, err := r.store.Get(ctx, requestcontext.OrgID(ctx), artifactID)
	if err != nil {
		return nil, fmt.Errorf("load artifact for promotion: %w", err)
	}
	if current.IsAuthoritative {
		return nil, dErrors.New(dErrors.CodeConflict, "artifact is already authoritative")
	}
	if current.Status != StatusComplete {
		return nil, dErrors.New(dErrors.CodeConflict, "only complete artifacts can be promoted")
	}

	return r.Supersede(ctx, artifactID, NewVersion{
		Producer:      ProducerHuman,
		Inputs:        []id.ArtifactID{artifactID},
		Metadata:      current.Metadata,
		Status:        StatusComplete,
		Authoritative: true,
	})
}

// Get returns one artifact version, organization-scoped.
func (r *Recorder) Get(ctx context.Context, artifactID id.ArtifactID) (*Artifact, error) {
	return r.store.Get(ctx, requestcontext.OrgID(ctx), artifactID)
}

// Lineage returns the full version chain containing artifactID, oldest first.
func (r *Recorder) Lineage(ctx context.Context, artifactID id.ArtifactID) ([]Artifact, error) {
	return r.store.Lineage(ctx, requestcontext.OrgID(ctx), artifactID)
}

// Latest returns the newest version of one evidence type for a call.
func (r *Recorder) Latest(ctx context.Context, callID id.CallID, artifactType Type) (*Artifact, error) {
	return r.store.LatestByCallAndType(ctx, requestcontext.OrgID(ctx), callID, artifactType)
}

// ListByCall returns all artifact versions evidencing one call.
func (r *Recorder) ListByCall(ctx context.Context, callID id.CallID) ([]Artifact, error) {
	return r.store.ListByCall(ctx, requestcontext.OrgID(ctx), callID)
}

// Complete finalizes an asynchronous artifact with its produced metadata and
// records the execution in the ledger.
func (r *Recorder) Complete(ctx context.Context, artifactID id.ArtifactID, status Status, metadata Metadata, action string) error {
	orgID := requestcontext.OrgID(ctx)
	before, err := r.store.Get(ctx, orgID, artifactID)
	if err != nil {
		return fmt.Errorf("load artifact for completion: %w", err)
	}
	if status != StatusComplete && status != StatusFailed {
		return dErrors.New(dErrors.CodeInvalidInput, "completion status must be complete or failed")
	}

	if err := r.store.CompleteStatus(ctx, orgID, artifactID, status, metadata); err != nil {
		return fmt.Errorf("complete artifact: %w", err)
	}

	after := *before
	after.Status = status
	if metadata != nil {
		after.Metadata = metadata
	}
	if err := r.ledger.RecordExecution(ctx, action, ResourceType, uuid.UUID(artifactID), snapshotOf(*before), snapshotOf(after)); err != nil {
		return fmt.Errorf("record artifact completion: %w", err)
	}
	return nil
}

func validateNew(in NewArtifact) error {
	if in.CallID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "artifact requires a call_id")
	}
	switch in.Type {
	case TypeRecording, TypeTranscript, TypeTranslation, TypeScore, TypeManifest:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown artifact type")
	}
	if in.Producer != ProducerHuman && in.Producer != ProducerModel {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown artifact producer")
	}
	if in.Metadata != nil && in.Metadata.Kind() != in.Type {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata kind does not match artifact type")
	}
	return nil
}
