package store

import (
	"context"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// SessionStore persists per-conversation records. Every write slides
// the record's TTL.
type SessionStore interface {
	Create(ctx context.Context, appName, userID, channel, credentialHash, sessionID string) (*types.Session, error)
	// FindOrCreate returns the user's most recent live session for the
	// given channel and credential, or creates one. Calling it twice
	// with the same arguments yields the same session; a different
	// channel or credential never shares a session.
	FindOrCreate(ctx context.Context, appName, userID, channel, credentialHash string) (*types.Session, error)
	// Get returns (nil, nil) when the session does not exist or its
	// record could not be parsed; corrupt records are purged.
	Get(ctx context.Context, appName, sessionID string) (*types.Session, error)
	AppendMessage(ctx context.Context, appName, sessionID string, msgs ...types.ChatMessage) (*types.Session, error)
	UpdateContext(ctx context.Context, appName, sessionID string, kv map[string]any) error
	UpdateWorkflowState(ctx context.Context, appName, sessionID string, state types.WorkflowState) error
	ClearWorkflowState(ctx context.Context, appName, sessionID string, kind types.WorkflowKind) error
	SetVectorIndex(ctx context.Context, appName, sessionID string, entries []types.VectorEntry) error
	History(ctx context.Context, appName, sessionID string, limit int) ([]types.ChatMessage, error)
	ListByUser(ctx context.Context, appName, userID string) ([]string, error)
	Delete(ctx context.Context, appName, sessionID string) error
}

// ProfileCacheStore keeps the fetched user profile plus its summary
// projection. The two projections are written and deleted together.
type ProfileCacheStore interface {
	Get(ctx context.Context, cacheKey string) (*types.CacheEntry, error)
	GetSummary(ctx context.Context, cacheKey string) (*types.CacheSummary, error)
	Set(ctx context.Context, cacheKey string, entry *types.CacheEntry) error
	Delete(ctx context.Context, cacheKey string) error
}

type Provider interface {
	Cache() types.Cache
	SessionStore() SessionStore
	ProfileCacheStore() ProfileCacheStore
}
