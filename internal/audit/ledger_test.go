package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "callvault/pkg/domain"
	"callvault/pkg/requestcontext"
)

func orgContext(orgID id.OrgID) context.Context {
	return requestcontext.WithOrgID(context.Background(), orgID)
}

func TestRecordIntent_RejectsNonIntentAction(t *testing.T) {
	ledger := NewLedger(NewMemoryStore())

	err := ledger.RecordIntent(orgContext(id.NewOrgID()), ActionCreate, "call", uuid.New(), nil)
	require.Error(t, err)
}

func TestRecordIntent_AppendsEntry(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store)
	orgID := id.NewOrgID()
	ctx := orgContext(orgID)
	callID := uuid.New()

	require.NoError(t, ledger.RecordIntent(ctx, ActionIntentTranslation, "call", callID,
		map[string]string{"to_language": "es"}))

	intents, err := store.ListIntents(ctx, orgID, DefaultQueryLimit)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, ActionIntentTranslation, intents[0].Action)
	assert.Equal(t, callID, intents[0].ResourceID)
	assert.Nil(t, intents[0].Before, "intent has no prior state")
	assert.JSONEq(t, `{"to_language":"es"}`, string(intents[0].After))
}

func TestAppend_ActorAttribution(t *testing.T) {
	t.Run("system when no user is present", func(t *testing.T) {
		store := NewMemoryStore()
		ledger := NewLedger(store)
		orgID := id.NewOrgID()
		ctx := orgContext(orgID)

		resourceID := uuid.New()
		require.NoError(t, ledger.RecordExecution(ctx, ActionCreate, "call", resourceID, nil, nil))

		entries, err := store.ListByResource(ctx, orgID, "call", resourceID, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ActorSystem, entries[0].ActorType)
		assert.Empty(t, entries[0].ActorID)
	})

	t.Run("human when a user is present", func(t *testing.T) {
		store := NewMemoryStore()
		ledger := NewLedger(store)
		orgID := id.NewOrgID()
		userID := id.NewUserID()
		ctx := requestcontext.WithUserID(orgContext(orgID), userID)

		resourceID := uuid.New()
		require.NoError(t, ledger.RecordExecution(ctx, ActionUpdate, "artifact", resourceID, nil, nil))

		entries, err := store.ListByResource(ctx, orgID, "artifact", resourceID, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ActorHuman, entries[0].ActorType)
		assert.Equal(t, userID.String(), entries[0].ActorID)
	})

	t.Run("declared actor type wins", func(t *testing.T) {
		store := NewMemoryStore()
		ledger := NewLedger(store)
		orgID := id.NewOrgID()
		ctx := requestcontext.WithActorType(orgContext(orgID), string(ActorModel))

		resourceID := uuid.New()
		require.NoError(t, ledger.RecordExecution(ctx, ActionCreate, "artifact", resourceID, nil, nil))

		entries, err := store.ListByResource(ctx, orgID, "artifact", resourceID, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ActorModel, entries[0].ActorType)
	})
}

func TestListByResource_ClampsLimit(t *testing.T) {
	store := NewMemoryStore()
	ledger := NewLedger(store)
	orgID := id.NewOrgID()
	resourceID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range DefaultQueryLimit + 20 {
		ctx := requestcontext.WithTime(orgContext(orgID), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, ledger.RecordExecution(ctx, ActionUpdate, "call", resourceID, nil, nil))
	}

	entries, err := ledger.ListByResource(orgContext(orgID), "call", resourceID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultQueryLimit)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt), "newest first")
}

// fakeEvidence is an EvidenceIndex backed by a fixed map of earliest
// execution-artifact times.
type fakeEvidence struct {
	earliest map[string]time.Time
}

func (f fakeEvidence) EarliestByCallAndType(_ context.Context, _ id.OrgID, callID id.CallID, artifactType string) (time.Time, bool, error) {
	at, ok := f.earliest[callID.String()+"/"+artifactType]
	return at, ok, nil
}

func TestFindIntentViolations(t *testing.T) {
	orgID := id.NewOrgID()
	callID := id.NewCallID()
	intentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	ledger := NewLedger(store)
	ctx := requestcontext.WithTime(orgContext(orgID), intentAt)
	require.NoError(t, ledger.RecordIntent(ctx, ActionIntentTranslation, "call", uuid.UUID(callID), nil))

	t.Run("execution after intent passes", func(t *testing.T) {
		evidence := fakeEvidence{earliest: map[string]time.Time{
			callID.String() + "/translation": intentAt.Add(time.Minute),
		}}
		violations, err := FindIntentViolations(context.Background(), store, evidence, orgID)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("execution before intent is a violation", func(t *testing.T) {
		executedAt := intentAt.Add(-time.Minute)
		evidence := fakeEvidence{earliest: map[string]time.Time{
			callID.String() + "/translation": executedAt,
		}}
		violations, err := FindIntentViolations(context.Background(), store, evidence, orgID)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, ActionIntentTranslation, violations[0].Action)
		assert.Equal(t, uuid.UUID(callID), violations[0].ResourceID)
		assert.Equal(t, executedAt, violations[0].ExecutedAt)
		assert.Equal(t, intentAt, violations[0].IntentAt)
	})

	t.Run("missing execution artifact is not a violation", func(t *testing.T) {
		violations, err := FindIntentViolations(context.Background(), store, fakeEvidence{}, orgID)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
}
