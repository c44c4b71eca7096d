package v1_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core/srv"
	v1 "github.com/KB-iGOT/kb-support-agent-service-sub000/app/logic/v1"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store/redisstore"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/testutils"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

type memProvider struct {
	cache    types.Cache
	sessions store.SessionStore
	profiles store.ProfileCacheStore
}

func newMemProvider() *memProvider {
	cache := testutils.NewMemCache()
	return &memProvider{
		cache:    cache,
		sessions: redisstore.NewSessionStore(cache),
		profiles: redisstore.NewProfileCacheStore(cache),
	}
}

func (p *memProvider) Cache() types.Cache                         { return p.cache }
func (p *memProvider) SessionStore() store.SessionStore           { return p.sessions }
func (p *memProvider) ProfileCacheStore() store.ProfileCacheStore { return p.profiles }

type fakeAI struct {
	classifyResult string
	rephraseCalls  int
}

func (f *fakeAI) Classify(_ context.Context, _ string, _ []types.ChatMessage) (string, error) {
	return f.classifyResult, nil
}

func (f *fakeAI) Generate(_ context.Context, _ string, _ []types.ChatMessage) (string, error) {
	return "generated answer", nil
}

func (f *fakeAI) Rephrase(_ context.Context, query string, _ []types.ChatMessage) (string, error) {
	f.rephraseCalls++
	return "what is the status of my certificate for " + query, nil
}

func (f *fakeAI) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vecs := make([][]float64, len(texts))
	for i := range texts {
		vecs[i] = []float64{1, 0, 0}
	}
	return vecs, nil
}

func (f *fakeAI) Lang() string { return "en" }

type fakePlatform struct {
	profile    map[string]any
	acceptOTP  string
	otpSentTo  []string
	updated    []map[string]any
	updateErr  error
	fetchCount int
	tickets    []string
	certIssued []string
}

func (f *fakePlatform) FetchUserDetails(_ context.Context, userID string) (*types.CacheEntry, error) {
	f.fetchCount++
	profile := make(map[string]any, len(f.profile))
	for k, v := range f.profile {
		profile[k] = v
	}
	return &types.CacheEntry{
		UserID:    userID,
		Profile:   profile,
		FetchedAt: time.Now().Unix(),
		Courses: []types.EnrollmentRecord{
			{ContentID: "do_1", ContentName: "Data Science Bootcamp", ContentType: "Course", Status: "completed", CertificateIssued: true, IssuedCertificates: 1},
		},
		Enrollment: types.EnrollmentSummary{TotalCourses: 1, CompletedCourses: 1, CertificatesIssued: 1},
	}, nil
}

func (f *fakePlatform) UpdateProfile(_ context.Context, _ string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, fields)
	for k, v := range fields {
		f.profile[k] = v
	}
	return nil
}

func (f *fakePlatform) GenerateOTP(_ context.Context, _, destination string) error {
	f.otpSentTo = append(f.otpSentTo, destination)
	return nil
}

func (f *fakePlatform) VerifyOTP(_ context.Context, _, _, code string) (bool, error) {
	return code == f.acceptOTP, nil
}

func (f *fakePlatform) IssueCertificate(_ context.Context, _, courseID, _ string) error {
	f.certIssued = append(f.certIssued, courseID)
	return nil
}

func (f *fakePlatform) CreateTicket(_ context.Context, _, subject, _ string) (string, error) {
	f.tickets = append(f.tickets, subject)
	return "TCK-1001", nil
}

func newTestEnv() (*core.Core, *fakeAI, *fakePlatform, *memProvider, v1.RequestContext) {
	aiDriver := &fakeAI{}
	platform := &fakePlatform{
		profile: map[string]any{
			"firstName": "Asha",
			"lastName":  "Rao",
			"email":     "asha.rao@gov.in",
			"mobile":    "9876543210",
		},
		acceptOTP: "112233",
	}
	provider := newMemProvider()
	c := core.SetupCoreWith(core.Config{AppName: "kb-support-agent"}, provider, srv.Setup(aiDriver, platform))
	rc := v1.RequestContext{
		AppName:        "kb-support-agent",
		UserID:         "user-1",
		Channel:        "web",
		CredentialHash: "cred-hash",
	}
	return c, aiDriver, platform, provider, rc
}

func Test_MobileUpdate_FullFlow(t *testing.T) {
	ctx := context.Background()
	c, _, platform, provider, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	res, err := logic.HandleMessage("I want to change my mobile number")
	require.NoError(t, err)
	assert.Equal(t, types.CATEGORY_PROFILE_UPDATE, res.Category)
	assert.Contains(t, res.Reply, "currently registered")

	res, err = logic.HandleMessage("9876543210")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "new mobile number")

	res, err = logic.HandleMessage("9123456789")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "new number")
	assert.Equal(t, []string{"9123456789"}, platform.otpSentTo)

	res, err = logic.HandleMessage("112233")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "updated")

	require.Len(t, platform.updated, 1)
	assert.Equal(t, "9123456789", platform.updated[0]["mobile"])

	session, err := provider.SessionStore().FindOrCreate(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash)
	require.NoError(t, err)
	assert.Empty(t, session.Workflows)
}

func Test_MobileUpdate_WrongOTPStaysAtVerify(t *testing.T) {
	ctx := context.Background()
	c, _, platform, provider, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	_, err := logic.HandleMessage("change my phone number")
	require.NoError(t, err)
	_, err = logic.HandleMessage("9876543210")
	require.NoError(t, err)
	_, err = logic.HandleMessage("9123456789")
	require.NoError(t, err)

	res, err := logic.HandleMessage("999999")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "does not match")

	session, err := provider.SessionStore().FindOrCreate(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash)
	require.NoError(t, err)
	state := session.Workflows[string(types.WORKFLOW_KIND_MOBILE_UPDATE)]
	assert.Equal(t, types.STEP_OTP_VERIFY, state.Step)
	assert.Equal(t, "9123456789", state.OTPDestination)
	assert.Equal(t, 1, state.OTPAttempts)

	// Nothing was written upstream.
	assert.Empty(t, platform.updated)

	// The right code still completes the flow.
	res, err = logic.HandleMessage("112233")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "updated")
}

func Test_MobileUpdate_MismatchKeepsChallengeStep(t *testing.T) {
	ctx := context.Background()
	c, _, platform, provider, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	_, err := logic.HandleMessage("change my mobile number")
	require.NoError(t, err)

	res, err := logic.HandleMessage("9000000000")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "correct current mobile number")

	// The workflow waits at the challenge step; no OTP went anywhere.
	session, err := provider.SessionStore().FindOrCreate(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash)
	require.NoError(t, err)
	state := session.Workflows[string(types.WORKFLOW_KIND_MOBILE_UPDATE)]
	assert.Equal(t, types.STEP_CURRENT_VALUE_CHALLENGE, state.Step)
	assert.Empty(t, platform.otpSentTo)

	// Retyping the correct number resumes the flow.
	res, err = logic.HandleMessage("9876543210")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "new mobile number")
}

func Test_Chat_SessionsIsolatedPerCredential(t *testing.T) {
	ctx := context.Background()
	c, _, _, _, rc := newTestEnv()

	first, err := v1.NewChatLogic(ctx, c, rc).HandleMessage("hello there, what can you do")
	require.NoError(t, err)

	// The same user signs in on another device with a fresh credential.
	rc2 := rc
	rc2.CredentialHash = "cred-hash-2"
	second, err := v1.NewChatLogic(ctx, c, rc2).HandleMessage("hello again from my other device")
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func Test_NameUpdate_ApplyFailureClearsWorkflow(t *testing.T) {
	ctx := context.Background()
	c, _, platform, provider, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	_, err := logic.HandleMessage("please change my name to Asha R")
	require.NoError(t, err)
	assert.Equal(t, []string{"9876543210"}, platform.otpSentTo)

	platform.updateErr = fmt.Errorf("upstream 502")

	res, err := logic.HandleMessage("112233")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "could not save")

	// The name is untouched and the workflow is not resumable.
	assert.Equal(t, "Asha", platform.profile["firstName"])
	session, err := provider.SessionStore().FindOrCreate(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash)
	require.NoError(t, err)
	assert.Empty(t, session.Workflows)
}

func Test_Router_DigitNotRewrittenDuringWorkflow(t *testing.T) {
	ctx := context.Background()
	c, aiDriver, _, _, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	_, err := logic.HandleMessage("change my mobile number")
	require.NoError(t, err)
	_, err = logic.HandleMessage("9876543210")
	require.NoError(t, err)

	// A lone digit mid-workflow must reach the workflow untouched.
	_, err = logic.HandleMessage("9")
	require.NoError(t, err)
	assert.Zero(t, aiDriver.rephraseCalls)
}

func Test_ProfileCache_InvalidateForcesFreshFetch(t *testing.T) {
	ctx := context.Background()
	c, _, platform, _, rc := newTestEnv()
	logic := v1.NewProfileLogic(ctx, c, rc)

	_, err := logic.GetOrFetch(nil)
	require.NoError(t, err)
	_, err = logic.GetOrFetch(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, platform.fetchCount)

	require.NoError(t, logic.Invalidate())

	_, err = logic.GetOrFetch(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, platform.fetchCount)
}

func Test_ProfileSearch_FuzzyFallbackWithoutIndex(t *testing.T) {
	ctx := context.Background()
	c, _, _, provider, rc := newTestEnv()
	profile := v1.NewProfileLogic(ctx, c, rc)

	// Warm the cache without touching any session index.
	_, err := profile.GetOrFetch(nil)
	require.NoError(t, err)

	session, err := provider.SessionStore().Create(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash, "")
	require.NoError(t, err)
	require.Empty(t, session.VectorIndex)

	matches := profile.Search(session, "data science", 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "do_1", matches[0].Entry.Source)
}

func Test_GetOrFetch_BuildsSessionIndexOnCacheHit(t *testing.T) {
	ctx := context.Background()
	c, _, platform, provider, rc := newTestEnv()
	profile := v1.NewProfileLogic(ctx, c, rc)

	_, err := profile.GetOrFetch(nil)
	require.NoError(t, err)

	session, err := provider.SessionStore().Create(ctx, rc.AppName, rc.UserID, rc.Channel, rc.CredentialHash, "")
	require.NoError(t, err)

	// A cache hit still leaves the session searchable.
	_, err = profile.GetOrFetch(session)
	require.NoError(t, err)
	assert.Equal(t, 1, platform.fetchCount)
	assert.NotEmpty(t, session.VectorIndex)

	stored, err := provider.SessionStore().Get(ctx, rc.AppName, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.VectorIndex)
}

func Test_ProfileInfo_UsesSummary(t *testing.T) {
	ctx := context.Background()
	c, aiDriver, _, _, rc := newTestEnv()
	aiDriver.classifyResult = types.CATEGORY_PROFILE_INFO
	logic := v1.NewChatLogic(ctx, c, rc)

	res, err := logic.HandleMessage("show me my profile details")
	require.NoError(t, err)
	assert.Equal(t, types.CATEGORY_PROFILE_INFO, res.Category)
	assert.Contains(t, res.Reply, "Asha Rao")
	assert.Contains(t, res.Reply, "1 enrolled")
	// The mobile number never appears in full.
	assert.NotContains(t, res.Reply, "9876543210")
}

func Test_Ticket_CreatesTicket(t *testing.T) {
	ctx := context.Background()
	c, _, platform, _, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	res, err := logic.HandleMessage("I want to raise a complaint about course content")
	require.NoError(t, err)
	assert.Equal(t, types.CATEGORY_TICKET, res.Category)
	assert.Contains(t, res.Reply, "TCK-1001")
	assert.Len(t, platform.tickets, 1)
}

func Test_SessionHistory_PersistsTurns(t *testing.T) {
	ctx := context.Background()
	c, _, _, provider, rc := newTestEnv()
	logic := v1.NewChatLogic(ctx, c, rc)

	res, err := logic.HandleMessage("hello there, what can you do for me today")
	require.NoError(t, err)

	session, err := provider.SessionStore().Get(ctx, rc.AppName, res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, types.USER_ROLE_USER, session.Messages[0].Role)
	assert.Equal(t, types.USER_ROLE_ASSISTANT, session.Messages[1].Role)
	assert.Equal(t, res.Reply, session.Messages[1].Content)
}
