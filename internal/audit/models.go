// Package audit is the append-only ledger of declared intents and executed
// actions. Entries are immutable: the store exposes no update or delete.
package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	id "callvault/pkg/domain"
)

// ActorType classifies who performed an action.
type ActorType string

const (
	ActorHuman  ActorType = "human"
	ActorSystem ActorType = "system"
	ActorModel  ActorType = "model"
)

// Well-known ledger actions. Regulated actions declare intent before the
// side-effecting call; execution entries land after it.
const (
	ActionCreate = "create"
	ActionUpdate = "update"

	IntentPrefix    = "intent:"
	ExecutionPrefix = "execute:"

	ActionIntentRecording     = IntentPrefix + "recording_requested"
	ActionIntentTranslation   = IntentPrefix + "translation_requested"
	ActionIntentTranscription = IntentPrefix + "transcription_requested"
	ActionIntentScoring       = IntentPrefix + "scoring_requested"

	ActionExecTranslation   = ExecutionPrefix + "translation_completed"
	ActionExecTranscription = ExecutionPrefix + "transcription_completed"
	ActionExecScoring       = ExecutionPrefix + "scoring_completed"
)

// IsIntent reports whether an action declares intent rather than records an
// outcome.
func IsIntent(action string) bool {
	return strings.HasPrefix(action, IntentPrefix)
}

// Entry is one immutable ledger row. Before and After hold JSON snapshots
// produced from typed payloads at the call site.
type Entry struct {
	ID           uuid.UUID
	OrgID        id.OrgID
	ResourceType string
	ResourceID   uuid.UUID
	Action       string
	ActorType    ActorType
	ActorID      string
	Before       json.RawMessage
	After        json.RawMessage
	CreatedAt    time.Time
}

// IntentViolation reports an execution artifact that predates its declared
// intent. Intent ordering is a process convention, not enforced on the write
// path, so violations are detected after the fact.
type IntentViolation struct {
	IntentEntryID uuid.UUID
	Action        string
	ResourceID    uuid.UUID
	IntentAt      time.Time
	ExecutedAt    time.Time
}
