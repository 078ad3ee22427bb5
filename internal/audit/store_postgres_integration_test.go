//go:build integration

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "callvault/pkg/domain"
	txcontext "callvault/pkg/platform/tx"
	"callvault/pkg/testutil/containers"
)

func newAuditDB(t *testing.T) *sql.DB {
	t.Helper()
	pg := containers.NewPostgresContainer(t, "../../db/schema.sql")
	db, err := sql.Open("postgres", pg.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(context.Background()))
	return db
}

func newEntry(orgID id.OrgID, action string, at time.Time) Entry {
	return Entry{
		ID:           uuid.New(),
		OrgID:        orgID,
		ResourceType: "call",
		ResourceID:   uuid.New(),
		Action:       action,
		ActorType:    ActorSystem,
		After:        json.RawMessage(`{"status":"pending"}`),
		CreatedAt:    at,
	}
}

func TestPostgresStore_AppendAndList(t *testing.T) {
	store := NewPostgresStore(newAuditDB(t))
	ctx := context.Background()
	orgID := id.NewOrgID()

	entry := newEntry(orgID, ActionCreate, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, store.Append(ctx, entry))

	listed, err := store.ListByResource(ctx, orgID, "call", entry.ResourceID, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, entry.ID, listed[0].ID)
	assert.Equal(t, ActionCreate, listed[0].Action)
	assert.Equal(t, ActorSystem, listed[0].ActorType)
	assert.Nil(t, listed[0].Before)
	assert.JSONEq(t, `{"status":"pending"}`, string(listed[0].After))

	t.Run("another org sees nothing", func(t *testing.T) {
		listed, err := store.ListByResource(ctx, id.NewOrgID(), "call", entry.ResourceID, 10)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}

func TestPostgresStore_ListByResourceOrdersNewestFirst(t *testing.T) {
	store := NewPostgresStore(newAuditDB(t))
	ctx := context.Background()
	orgID := id.NewOrgID()
	resourceID := uuid.New()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 5 {
		entry := newEntry(orgID, fmt.Sprintf("update:step_%d", i), base.Add(time.Duration(i)*time.Second))
		entry.ResourceID = resourceID
		require.NoError(t, store.Append(ctx, entry))
	}

	listed, err := store.ListByResource(ctx, orgID, "call", resourceID, 3)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "update:step_4", listed[0].Action)
	assert.Equal(t, "update:step_2", listed[2].Action)
}

func TestPostgresStore_ListIntentsFiltersByPrefix(t *testing.T) {
	store := NewPostgresStore(newAuditDB(t))
	ctx := context.Background()
	orgID := id.NewOrgID()

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Append(ctx, newEntry(orgID, ActionIntentRecording, now)))
	require.NoError(t, store.Append(ctx, newEntry(orgID, ActionCreate, now.Add(time.Second))))
	require.NoError(t, store.Append(ctx, newEntry(orgID, ActionIntentScoring, now.Add(2*time.Second))))

	intents, err := store.ListIntents(ctx, orgID, 10)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	assert.Equal(t, ActionIntentScoring, intents[0].Action)
	assert.Equal(t, ActionIntentRecording, intents[1].Action)
}

// TestPostgresStore_AppendJoinsContextTransaction proves the ledger write and
// the business write share a commit: rolling the transaction back leaves no
// audit row behind.
func TestPostgresStore_AppendJoinsContextTransaction(t *testing.T) {
	db := newAuditDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	orgID := id.NewOrgID()

	entry := newEntry(orgID, ActionCreate, time.Now().UTC().Truncate(time.Microsecond))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(txcontext.WithTx(ctx, tx), entry))
	require.NoError(t, tx.Rollback())

	listed, err := store.ListByResource(ctx, orgID, "call", entry.ResourceID, 10)
	require.NoError(t, err)
	assert.Empty(t, listed, "a rolled-back transaction must take its ledger entry with it")
}
