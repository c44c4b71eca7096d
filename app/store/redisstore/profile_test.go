package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store/redisstore"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/testutils"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

func sampleEntry() *types.CacheEntry {
	return &types.CacheEntry{
		UserID:         "user-1",
		CredentialHash: utils.SHA256("token"),
		Profile: map[string]any{
			"firstName": "Asha",
			"lastName":  "Rao",
			"email":     "asha.rao@gov.in",
			"mobile":    "9876543210",
		},
		Enrollment: types.EnrollmentSummary{TotalCourses: 3, CompletedCourses: 1},
		FetchedAt:  time.Now().Unix(),
	}
}

func Test_ProfileCache_SetWritesBothProjections(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewProfileCacheStore(testutils.NewMemCache())
	key := utils.MD5("user-1:cred")

	require.NoError(t, s.Set(ctx, key, sampleEntry()))

	full, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, full)
	assert.Equal(t, "Asha Rao", full.FullName())

	summary, err := s.GetSummary(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "Asha Rao", summary.FullName)
	assert.Equal(t, 3, summary.Enrollment.TotalCourses)
}

func Test_ProfileCache_DeleteRemovesBothProjections(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewProfileCacheStore(testutils.NewMemCache())
	key := utils.MD5("user-1:cred")

	require.NoError(t, s.Set(ctx, key, sampleEntry()))
	require.NoError(t, s.Delete(ctx, key))

	full, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, full)

	summary, err := s.GetSummary(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func Test_ProfileCache_WritesCompleteAfterRequestCancel(t *testing.T) {
	cache := testutils.NewMemCache()
	s := redisstore.NewProfileCacheStore(cache)
	key := utils.MD5("user-1:cred")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Set(ctx, key, sampleEntry()))

	full, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, full)

	require.NoError(t, s.Delete(ctx, key))
	full, err = s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, full)
}

func Test_ProfileCache_MissIsNil(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewProfileCacheStore(testutils.NewMemCache())

	full, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, full)
}

func Test_ProfileCache_CorruptRecordPurged(t *testing.T) {
	ctx := context.Background()
	cache := testutils.NewMemCache()
	s := redisstore.NewProfileCacheStore(cache)
	key := utils.MD5("user-1:cred")

	cache.Put(redisstore.PROFILE_CACHE_KEY_PREFIX+key, "{broken")
	cache.Put(redisstore.PROFILE_CACHE_KEY_PREFIX+key+":summary", "{broken")

	full, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, full)

	// The purge clears the sibling projection too.
	raw, err := cache.Get(ctx, redisstore.PROFILE_CACHE_KEY_PREFIX+key+":summary")
	require.NoError(t, err)
	assert.Empty(t, raw)
}
