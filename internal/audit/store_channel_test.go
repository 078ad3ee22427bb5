package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "callvault/pkg/domain"
)

func TestChannelStore_AppendsLandInBackingStore(t *testing.T) {
	backing := NewMemoryStore()
	async := NewChannelStore(backing, 4)
	worker := NewWorker(backing, async.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	orgID := id.NewOrgID()
	resourceID := uuid.New()
	require.NoError(t, async.Append(context.Background(), Entry{
		ID:           uuid.New(),
		OrgID:        orgID,
		ResourceType: "call",
		ResourceID:   resourceID,
		Action:       ActionCreate,
		ActorType:    ActorSystem,
		CreatedAt:    time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		entries, err := backing.ListByResource(context.Background(), orgID, "call", resourceID, 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestChannelStore_ReadsHitBackingStore(t *testing.T) {
	backing := NewMemoryStore()
	async := NewChannelStore(backing, 1)

	orgID := id.NewOrgID()
	resourceID := uuid.New()
	entry := Entry{
		ID:           uuid.New(),
		OrgID:        orgID,
		ResourceType: "call",
		ResourceID:   resourceID,
		Action:       ActionCreate,
		ActorType:    ActorSystem,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, backing.Append(context.Background(), entry))

	entries, err := async.ListByResource(context.Background(), orgID, "call", resourceID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestChannelStore_FullInboxRespectsCancellation(t *testing.T) {
	async := NewChannelStore(NewMemoryStore(), 1)
	require.NoError(t, async.Append(context.Background(), Entry{ID: uuid.New()}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := async.Append(ctx, Entry{ID: uuid.New()})
	assert.ErrorIs(t, err, context.Canceled)
}
