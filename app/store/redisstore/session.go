package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/store"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

const (
	SESSION_KEY_PREFIX    = "adk_session:"
	SESSION_USER_INDEX_NS = "adk_session:user:"
)

func sessionKey(sessionID string) string {
	return SESSION_KEY_PREFIX + sessionID
}

func userIndexKey(appName, userID string) string {
	return SESSION_USER_INDEX_NS + appName + ":" + userID
}

// detach cuts the caller's cancellation off a store write. Writes are
// not revocable; an aborted request must not leave a half-persisted
// turn behind.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// SessionStore keeps each session as one JSON blob plus a per-user set
// of session ids. Every write refreshes the TTL on both.
type SessionStore struct {
	cache types.Cache
}

var _ store.SessionStore = (*SessionStore)(nil)

func NewSessionStore(cache types.Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

func (s *SessionStore) Create(ctx context.Context, appName, userID, channel, credentialHash, sessionID string) (*types.Session, error) {
	ctx = detach(ctx)
	if sessionID == "" {
		sessionID = utils.GenUUID()
	}
	now := time.Now().Unix()
	session := &types.Session{
		ID:             sessionID,
		AppName:        appName,
		UserID:         userID,
		Channel:        channel,
		CredentialHash: credentialHash,
		Messages:       []types.ChatMessage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, errors.Trace("SessionStore.Create", err)
	}
	if err := s.cache.SAdd(ctx, userIndexKey(appName, userID), sessionID); err != nil {
		return nil, errors.Trace("SessionStore.Create", err)
	}
	if err := s.cache.Expire(ctx, userIndexKey(appName, userID), types.SESSION_TTL); err != nil {
		return nil, errors.Trace("SessionStore.Create", err)
	}
	return session, nil
}

// FindOrCreate returns the most recently active live session for the
// (user, channel, credential) triple, pruning index entries whose
// records have expired. Sessions for the same user under a different
// channel or credential are left alone; it creates a fresh session
// only when no matching one survives.
func (s *SessionStore) FindOrCreate(ctx context.Context, appName, userID, channel, credentialHash string) (*types.Session, error) {
	indexKey := userIndexKey(appName, userID)
	ids, err := s.cache.SMembers(ctx, indexKey)
	if err != nil {
		return nil, errors.Trace("SessionStore.FindOrCreate", err)
	}

	var latest *types.Session
	for _, id := range ids {
		session, err := s.Get(ctx, appName, id)
		if err != nil {
			return nil, errors.Trace("SessionStore.FindOrCreate", err)
		}
		if session == nil {
			if err := s.cache.SRem(ctx, indexKey, id); err != nil {
				return nil, errors.Trace("SessionStore.FindOrCreate", err)
			}
			continue
		}
		if session.Channel != channel || session.CredentialHash != credentialHash {
			continue
		}
		if latest == nil || session.UpdatedAt > latest.UpdatedAt {
			latest = session
		}
	}
	if latest != nil {
		return latest, nil
	}
	return s.Create(ctx, appName, userID, channel, credentialHash, "")
}

func (s *SessionStore) Get(ctx context.Context, appName, sessionID string) (*types.Session, error) {
	raw, err := s.cache.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, errors.Trace("SessionStore.Get", err)
	}
	if raw == "" {
		return nil, nil
	}

	var session types.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// Unparseable records are purged so the next turn starts clean
		// instead of failing forever.
		slog.Warn("purging corrupt session record",
			slog.String("session_id", sessionID),
			slog.String("app_name", appName),
			slog.Any("error", err),
		)
		if delErr := s.cache.Del(ctx, sessionKey(sessionID)); delErr != nil {
			return nil, errors.Trace("SessionStore.Get", delErr)
		}
		return nil, nil
	}
	return &session, nil
}

// AppendMessage adds messages and trims the record when it exceeds the
// message cap, keeping the most recent ones.
func (s *SessionStore) AppendMessage(ctx context.Context, appName, sessionID string, msgs ...types.ChatMessage) (*types.Session, error) {
	ctx = detach(ctx)
	session, err := s.mustGet(ctx, appName, sessionID)
	if err != nil {
		return nil, errors.Trace("SessionStore.AppendMessage", err)
	}

	session.Messages = append(session.Messages, msgs...)
	if len(session.Messages) > types.SESSION_MAX_MESSAGES {
		session.Messages = session.Messages[len(session.Messages)-types.SESSION_TRIM_KEEP:]
	}
	session.Touch()

	if err := s.save(ctx, session); err != nil {
		return nil, errors.Trace("SessionStore.AppendMessage", err)
	}
	return session, nil
}

func (s *SessionStore) UpdateContext(ctx context.Context, appName, sessionID string, kv map[string]any) error {
	ctx = detach(ctx)
	session, err := s.mustGet(ctx, appName, sessionID)
	if err != nil {
		return errors.Trace("SessionStore.UpdateContext", err)
	}

	if session.Context == nil {
		session.Context = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		session.Context[k] = v
	}
	session.Touch()

	if err := s.save(ctx, session); err != nil {
		return errors.Trace("SessionStore.UpdateContext", err)
	}
	return nil
}

func (s *SessionStore) UpdateWorkflowState(ctx context.Context, appName, sessionID string, state types.WorkflowState) error {
	ctx = detach(ctx)
	session, err := s.mustGet(ctx, appName, sessionID)
	if err != nil {
		return errors.Trace("SessionStore.UpdateWorkflowState", err)
	}

	if session.Workflows == nil {
		session.Workflows = make(map[string]types.WorkflowState)
	}
	session.Workflows[string(state.Kind)] = state
	session.Touch()

	if err := s.save(ctx, session); err != nil {
		return errors.Trace("SessionStore.UpdateWorkflowState", err)
	}
	return nil
}

func (s *SessionStore) ClearWorkflowState(ctx context.Context, appName, sessionID string, kind types.WorkflowKind) error {
	ctx = detach(ctx)
	session, err := s.mustGet(ctx, appName, sessionID)
	if err != nil {
		return errors.Trace("SessionStore.ClearWorkflowState", err)
	}

	delete(session.Workflows, string(kind))
	session.Touch()

	if err := s.save(ctx, session); err != nil {
		return errors.Trace("SessionStore.ClearWorkflowState", err)
	}
	return nil
}

func (s *SessionStore) SetVectorIndex(ctx context.Context, appName, sessionID string, entries []types.VectorEntry) error {
	ctx = detach(ctx)
	session, err := s.mustGet(ctx, appName, sessionID)
	if err != nil {
		return errors.Trace("SessionStore.SetVectorIndex", err)
	}

	session.VectorIndex = entries
	session.Touch()

	if err := s.save(ctx, session); err != nil {
		return errors.Trace("SessionStore.SetVectorIndex", err)
	}
	return nil
}

func (s *SessionStore) History(ctx context.Context, appName, sessionID string, limit int) ([]types.ChatMessage, error) {
	session, err := s.Get(ctx, appName, sessionID)
	if err != nil {
		return nil, errors.Trace("SessionStore.History", err)
	}
	if session == nil {
		return nil, nil
	}
	if limit <= 0 {
		return session.Messages, nil
	}
	return session.RecentMessages(limit), nil
}

func (s *SessionStore) ListByUser(ctx context.Context, appName, userID string) ([]string, error) {
	ids, err := s.cache.SMembers(ctx, userIndexKey(appName, userID))
	if err != nil {
		return nil, errors.Trace("SessionStore.ListByUser", err)
	}
	return ids, nil
}

func (s *SessionStore) Delete(ctx context.Context, appName, sessionID string) error {
	ctx = detach(ctx)
	session, err := s.Get(ctx, appName, sessionID)
	if err != nil {
		return errors.Trace("SessionStore.Delete", err)
	}
	if err := s.cache.Del(ctx, sessionKey(sessionID)); err != nil {
		return errors.Trace("SessionStore.Delete", err)
	}
	if session != nil {
		if err := s.cache.SRem(ctx, userIndexKey(appName, session.UserID), sessionID); err != nil {
			return errors.Trace("SessionStore.Delete", err)
		}
	}
	return nil
}

func (s *SessionStore) mustGet(ctx context.Context, appName, sessionID string) (*types.Session, error) {
	session, err := s.Get(ctx, appName, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("SessionStore.mustGet", i18n.ERROR_SESSION_NOT_FOUND, fmt.Errorf("session %s not found", sessionID)).Code(http.StatusNotFound)
	}
	return session, nil
}

// save writes the session blob and slides the TTL on both the record
// and the user index.
func (s *SessionStore) save(ctx context.Context, session *types.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return errors.New("SessionStore.save.Marshal", i18n.ERROR_INTERNAL, err)
	}
	if err := s.cache.SetEx(ctx, sessionKey(session.ID), string(raw), types.SESSION_TTL); err != nil {
		return err
	}
	return s.cache.Expire(ctx, userIndexKey(session.AppName, session.UserID), types.SESSION_TTL)
}
