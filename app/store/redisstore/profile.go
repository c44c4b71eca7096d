package redisstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

const PROFILE_CACHE_KEY_PREFIX = "user_cache:"

func profileKey(cacheKey string) string {
	return PROFILE_CACHE_KEY_PREFIX + cacheKey
}

func profileSummaryKey(cacheKey string) string {
	return PROFILE_CACHE_KEY_PREFIX + cacheKey + ":summary"
}

// ProfileCacheStore holds the full profile entry and its summary under
// sibling keys. Writes and deletes always touch both so the projections
// cannot diverge.
type ProfileCacheStore struct {
	cache types.Cache
}

var _ store.ProfileCacheStore = (*ProfileCacheStore)(nil)

func NewProfileCacheStore(cache types.Cache) *ProfileCacheStore {
	return &ProfileCacheStore{cache: cache}
}

func (s *ProfileCacheStore) Get(ctx context.Context, cacheKey string) (*types.CacheEntry, error) {
	raw, err := s.cache.Get(ctx, profileKey(cacheKey))
	if err != nil {
		return nil, errors.Trace("ProfileCacheStore.Get", err)
	}
	if raw == "" {
		return nil, nil
	}

	var entry types.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		slog.Warn("purging corrupt profile cache record",
			slog.String("cache_key", cacheKey),
			slog.Any("error", err),
		)
		if delErr := s.Delete(ctx, cacheKey); delErr != nil {
			return nil, errors.Trace("ProfileCacheStore.Get", delErr)
		}
		return nil, nil
	}
	return &entry, nil
}

func (s *ProfileCacheStore) GetSummary(ctx context.Context, cacheKey string) (*types.CacheSummary, error) {
	raw, err := s.cache.Get(ctx, profileSummaryKey(cacheKey))
	if err != nil {
		return nil, errors.Trace("ProfileCacheStore.GetSummary", err)
	}
	if raw == "" {
		return nil, nil
	}

	var summary types.CacheSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		slog.Warn("purging corrupt profile summary record",
			slog.String("cache_key", cacheKey),
			slog.Any("error", err),
		)
		if delErr := s.Delete(ctx, cacheKey); delErr != nil {
			return nil, errors.Trace("ProfileCacheStore.GetSummary", delErr)
		}
		return nil, nil
	}
	return &summary, nil
}

func (s *ProfileCacheStore) Set(ctx context.Context, cacheKey string, entry *types.CacheEntry) error {
	ctx = detach(ctx)
	full, err := json.Marshal(entry)
	if err != nil {
		return errors.New("ProfileCacheStore.Set.Marshal", i18n.ERROR_INTERNAL, err)
	}
	summary, err := json.Marshal(entry.Summary())
	if err != nil {
		return errors.New("ProfileCacheStore.Set.MarshalSummary", i18n.ERROR_INTERNAL, err)
	}

	err = s.cache.SetMulti(ctx, types.PROFILE_CACHE_TTL, map[string]string{
		profileKey(cacheKey):        string(full),
		profileSummaryKey(cacheKey): string(summary),
	})
	if err != nil {
		return errors.Trace("ProfileCacheStore.Set", err)
	}
	return nil
}

// Delete removes both projections in one call so no reader can observe
// a half-invalidated cache.
func (s *ProfileCacheStore) Delete(ctx context.Context, cacheKey string) error {
	ctx = detach(ctx)
	if err := s.cache.Del(ctx, profileKey(cacheKey), profileSummaryKey(cacheKey)); err != nil {
		return errors.Trace("ProfileCacheStore.Delete", err)
	}
	return nil
}
