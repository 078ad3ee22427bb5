package idempotency

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callvault/pkg/platform/sentinel"
)

func TestMemoryStore_ClaimThenPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	acquired, err := store.Claim(ctx, "org-a", "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "first claim wins")

	acquired, err = store.Claim(ctx, "org-a", "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "second claim loses while the first is in flight")

	_, err = store.Get(ctx, "org-a", "k1")
	assert.ErrorIs(t, err, ErrInFlight)

	entry := Entry{Status: http.StatusCreated, Body: []byte(`{"id":"x"}`), CreatedAt: time.Now()}
	require.NoError(t, store.Put(ctx, "org-a", "k1", entry, time.Minute))

	got, err := store.Get(ctx, "org-a", "k1")
	require.NoError(t, err)
	assert.Equal(t, entry.Status, got.Status)
	assert.Equal(t, entry.Body, got.Body)
}

func TestMemoryStore_ReleaseReopensKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	acquired, err := store.Claim(ctx, "org-a", "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, store.Release(ctx, "org-a", "k1"))

	_, err = store.Get(ctx, "org-a", "k1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	acquired, err = store.Claim(ctx, "org-a", "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "a released key is claimable again")
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := Entry{Status: http.StatusOK, Body: []byte(`{}`), CreatedAt: time.Now()}
	require.NoError(t, store.Put(ctx, "org-a", "k1", entry, time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "org-a", "k1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "expired entries behave as misses")

	acquired, err := store.Claim(ctx, "org-a", "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "an expired key is claimable again")
}

func TestMemoryStore_ScopesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "org-a", "k1", Entry{Status: http.StatusOK}, time.Minute))

	_, err := store.Get(ctx, "org-b", "k1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
