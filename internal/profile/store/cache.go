package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"donorhub/internal/profile/models"
	id "donorhub/pkg/domain"
)

const cacheKeyPrefix = "profile:"

// CachedStore is a Redis read-through cache in front of another Store.
// Cache faults are never surfaced; the inner store remains the source of
// truth and every write invalidates before delegating.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	key := cacheKeyPrefix + userID.String()

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var profile models.Profile
		if err := json.Unmarshal(raw, &profile); err == nil {
			return &profile, nil
		}
		// Corrupt entry: drop it and fall through to the inner store.
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "profile cache read failed", "error", err)
	}

	profile, err := s.inner.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(profile); err == nil {
		if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "profile cache write failed", "error", err)
		}
	}
	return profile, nil
}

func (s *CachedStore) Create(ctx context.Context, profile *models.Profile) error {
	return s.inner.Create(ctx, profile)
}

func (s *CachedStore) Update(ctx context.Context, profile *models.Profile) error {
	// Invalidate before the write so a concurrent reader cannot re-fill the
	// cache with the about-to-be-stale entry after we return.
	key := cacheKeyPrefix + profile.ID.String()
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", "error", err)
	}
	return s.inner.Update(ctx, profile)
}

func (s *CachedStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}
