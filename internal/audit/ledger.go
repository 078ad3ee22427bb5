package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "callvault/pkg/domain"
	"callvault/pkg/requestcontext"
)

// Store persists ledger entries. It is append-only by construction: no
// update or delete is exposed anywhere in the interface.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByResource(ctx context.Context, orgID id.OrgID, resourceType string, resourceID uuid.UUID, limit int) ([]Entry, error)
	ListIntents(ctx context.Context, orgID id.OrgID, limit int) ([]Entry, error)
}

// DefaultQueryLimit bounds ledger reads when the caller does not.
const DefaultQueryLimit = 100

// Ledger records declared intents and executed actions. Actor identity and
// organization scope come from the request context so call sites stay thin.
type Ledger struct {
	store Store
}

// NewLedger constructs a Ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordIntent appends an intent:* entry. For regulated actions the caller
// must record intent before performing the side-effecting call; the ledger
// does not enforce the ordering, the verification query detects violations.
func (l *Ledger) RecordIntent(ctx context.Context, action, resourceType string, resourceID uuid.UUID, payload any) error {
	if !IsIntent(action) {
		return fmt.Errorf("action %q is not an intent action", action)
	}
	return l.append(ctx, action, resourceType, resourceID, nil, payload)
}

// RecordExecution appends an executed-action entry with optional before and
// after snapshots.
func (l *Ledger) RecordExecution(ctx context.Context, action, resourceType string, resourceID uuid.UUID, before, after any) error {
	return l.append(ctx, action, resourceType, resourceID, before, after)
}

func (l *Ledger) append(ctx context.Context, action, resourceType string, resourceID uuid.UUID, before, after any) error {
	beforeRaw, err := marshalSnapshot(before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	afterRaw, err := marshalSnapshot(after)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	actorType := ActorSystem
	actorID := ""
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		actorType = ActorHuman
		actorID = userID.String()
	}
	if declared := requestcontext.ActorType(ctx); declared != "" {
		actorType = ActorType(declared)
	}

	return l.store.Append(ctx, Entry{
		ID:           uuid.New(),
		OrgID:        requestcontext.OrgID(ctx),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		ActorType:    actorType,
		ActorID:      actorID,
		Before:       beforeRaw,
		After:        afterRaw,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
	})
}

// ListByResource returns the newest entries for one resource, bounded by
// limit. Reads are always organization-scoped.
func (l *Ledger) ListByResource(ctx context.Context, resourceType string, resourceID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > DefaultQueryLimit {
		limit = DefaultQueryLimit
	}
	return l.store.ListByResource(ctx, requestcontext.OrgID(ctx), resourceType, resourceID, limit)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// EvidenceIndex supplies creation times of execution artifacts, keyed by the
// call they evidence. Satisfied by the artifact store.
type EvidenceIndex interface {
	EarliestByCallAndType(ctx context.Context, orgID id.OrgID, callID id.CallID, artifactType string) (time.Time, bool, error)
}

// intentArtifactTypes maps each intent action to the artifact type its
// execution produces.
var intentArtifactTypes = map[string]string{
	ActionIntentRecording:     "recording",
	ActionIntentTranslation:   "translation",
	ActionIntentTranscription: "transcript",
	ActionIntentScoring:       "score",
}

// FindIntentViolations scans declared intents and reports any whose execution
// artifact predates the intent entry.
func FindIntentViolations(ctx context.Context, store Store, evidence EvidenceIndex, orgID id.OrgID) ([]IntentViolation, error) {
	intents, err := store.ListIntents(ctx, orgID, DefaultQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}

	var violations []IntentViolation
	for _, intent := range intents {
		artifactType, ok := intentArtifactTypes[intent.Action]
		if !ok {
			continue
		}
		executedAt, found, err := evidence.EarliestByCallAndType(ctx, orgID, id.CallID(intent.ResourceID), artifactType)
		if err != nil {
			return nil, fmt.Errorf("lookup execution artifact: %w", err)
		}
		if found && executedAt.Before(intent.CreatedAt) {
			violations = append(violations, IntentViolation{
				IntentEntryID: intent.ID,
				Action:        intent.Action,
				ResourceID:    intent.ResourceID,
				IntentAt:      intent.CreatedAt,
				ExecutedAt:    executedAt,
			})
		}
	}
	return violations, nil
}
