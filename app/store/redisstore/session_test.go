package redisstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store/redisstore"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/testutils"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

const (
	testApp     = "kb-support-agent"
	testChannel = "web"
	testCred    = "cred-1"
)

func Test_FindOrCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	first, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	ids, err := s.ListByUser(ctx, testApp, "user-1")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func Test_FindOrCreate_ScopedByChannelAndCredential(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	web, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)

	// A second device presents a different credential for the same user.
	otherCred, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, "cred-2")
	require.NoError(t, err)
	assert.NotEqual(t, web.ID, otherCred.ID)

	// Same credential over a different channel is its own conversation.
	mobileApp, err := s.FindOrCreate(ctx, testApp, "user-1", "mobile", testCred)
	require.NoError(t, err)
	assert.NotEqual(t, web.ID, mobileApp.ID)
	assert.NotEqual(t, otherCred.ID, mobileApp.ID)

	// Each triple keeps finding its own session.
	again, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)
	assert.Equal(t, web.ID, again.ID)

	ids, err := s.ListByUser(ctx, testApp, "user-1")
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func Test_FindOrCreate_PrunesExpiredSessions(t *testing.T) {
	ctx := context.Background()
	cache := testutils.NewMemCache()
	s := redisstore.NewSessionStore(cache)

	stale, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)

	cache.ForceExpire(redisstore.SESSION_KEY_PREFIX + stale.ID)

	fresh, err := s.FindOrCreate(ctx, testApp, "user-1", testChannel, testCred)
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, fresh.ID)

	ids, err := s.ListByUser(ctx, testApp, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{fresh.ID}, ids)
}

func Test_AppendMessage_TrimsToMostRecent(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	session, err := s.Create(ctx, testApp, "user-1", testChannel, testCred, "")
	require.NoError(t, err)

	appendN := func(from, to int) {
		for i := from; i < to; i++ {
			_, err := s.AppendMessage(ctx, testApp, session.ID, types.ChatMessage{
				ID:      fmt.Sprintf("m-%d", i),
				Role:    types.USER_ROLE_USER,
				Content: fmt.Sprintf("message %d", i),
			})
			require.NoError(t, err)
		}
	}

	// Crossing the cap trims down to the keep size, dropping the oldest.
	appendN(0, types.SESSION_MAX_MESSAGES+1)
	got, err := s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Messages, types.SESSION_TRIM_KEEP)
	dropped := types.SESSION_MAX_MESSAGES + 1 - types.SESSION_TRIM_KEEP
	assert.Equal(t, fmt.Sprintf("m-%d", dropped), got.Messages[0].ID)
	assert.Equal(t, fmt.Sprintf("m-%d", types.SESSION_MAX_MESSAGES), got.Messages[len(got.Messages)-1].ID)

	// Below the cap the history grows again; no trim until the next
	// crossing.
	appendN(types.SESSION_MAX_MESSAGES+1, types.SESSION_MAX_MESSAGES+5)
	got, err = s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, types.SESSION_TRIM_KEEP+4)
	assert.Equal(t, fmt.Sprintf("m-%d", dropped), got.Messages[0].ID)
	assert.Equal(t, fmt.Sprintf("m-%d", types.SESSION_MAX_MESSAGES+4), got.Messages[len(got.Messages)-1].ID)
}

func Test_AppendMessage_CompletesAfterRequestCancel(t *testing.T) {
	cache := testutils.NewMemCache()
	s := redisstore.NewSessionStore(cache)

	ctx, cancel := context.WithCancel(context.Background())
	session, err := s.Create(ctx, testApp, "user-1", testChannel, testCred, "")
	require.NoError(t, err)

	cancel()

	// The raw cache refuses the dead context; the store write must not.
	require.Error(t, cache.SetEx(ctx, "probe-key", "v", 0))

	_, err = s.AppendMessage(ctx, testApp, session.ID, types.ChatMessage{
		ID:      "m-1",
		Role:    types.USER_ROLE_USER,
		Content: "hello",
	})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), testApp, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 1)
}

func Test_Get_PurgesCorruptRecord(t *testing.T) {
	ctx := context.Background()
	cache := testutils.NewMemCache()
	s := redisstore.NewSessionStore(cache)

	cache.Put(redisstore.SESSION_KEY_PREFIX+"bad", "{not json")

	got, err := s.Get(ctx, testApp, "bad")
	require.NoError(t, err)
	assert.Nil(t, got)

	raw, err := cache.Get(ctx, redisstore.SESSION_KEY_PREFIX+"bad")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func Test_WorkflowState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	session, err := s.Create(ctx, testApp, "user-1", testChannel, testCred, "")
	require.NoError(t, err)

	state := types.WorkflowState{
		Kind:           types.WORKFLOW_KIND_MOBILE_UPDATE,
		Step:           types.STEP_OTP_VERIFY,
		TargetField:    "mobile",
		NewValue:       "9876543210",
		OTPDestination: "9876543210",
	}
	require.NoError(t, s.UpdateWorkflowState(ctx, testApp, session.ID, state))

	got, err := s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state.Step, got.Workflows[string(types.WORKFLOW_KIND_MOBILE_UPDATE)].Step)
	assert.Equal(t, state.OTPDestination, got.Workflows[string(types.WORKFLOW_KIND_MOBILE_UPDATE)].OTPDestination)

	require.NoError(t, s.ClearWorkflowState(ctx, testApp, session.ID, types.WORKFLOW_KIND_MOBILE_UPDATE))
	got, err = s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Workflows)
}

func Test_UpdateContext_Merges(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	session, err := s.Create(ctx, testApp, "user-1", testChannel, testCred, "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateContext(ctx, testApp, session.ID, map[string]any{"a": "1"}))
	require.NoError(t, s.UpdateContext(ctx, testApp, session.ID, map[string]any{"b": "2"}))

	got, err := s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Context["a"])
	assert.Equal(t, "2", got.Context["b"])
}

func Test_Delete_RemovesRecordAndIndex(t *testing.T) {
	ctx := context.Background()
	s := redisstore.NewSessionStore(testutils.NewMemCache())

	session, err := s.Create(ctx, testApp, "user-1", testChannel, testCred, "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, testApp, session.ID))

	got, err := s.Get(ctx, testApp, session.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	ids, err := s.ListByUser(ctx, testApp, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
