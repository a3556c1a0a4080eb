//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/profile/models"
	id "donorhub/pkg/domain"
	"donorhub/pkg/testutil/containers"
)

// countingStore counts reads through to the inner store.
type countingStore struct {
	*MemoryStore
	finds int
}

func (s *countingStore) FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	s.finds++
	return s.MemoryStore.FindByID(ctx, userID)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	inner := &countingStore{MemoryStore: NewMemoryStore()}
	cached := NewCachedStore(inner, rc.Client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	owner := id.UserID(uuid.New())

	require.NoError(t, cached.Create(ctx, &models.Profile{
		ID:      owner,
		Email:   "donor@example.com",
		Address: models.Address{"city": "A"},
	}))

	// First read misses the cache and fills it; the second is served from Redis.
	for i := 0; i < 2; i++ {
		got, err := cached.FindByID(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, "donor@example.com", got.Email)
	}
	assert.Equal(t, 1, inner.finds)
}

func TestCachedStore_UpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(ctx))

	inner := &countingStore{MemoryStore: NewMemoryStore()}
	cached := NewCachedStore(inner, rc.Client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	owner := id.UserID(uuid.New())

	require.NoError(t, cached.Create(ctx, &models.Profile{ID: owner, Address: models.Address{"city": "A"}}))

	got, err := cached.FindByID(ctx, owner)
	require.NoError(t, err)

	updated := got.Clone()
	updated.Address = models.Address{"city": "B"}
	require.NoError(t, cached.Update(ctx, updated))

	got, err = cached.FindByID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Address["city"], "stale cache entry dropped on update")
}
