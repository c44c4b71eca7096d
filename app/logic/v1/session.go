package v1

import (
	"context"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// SessionLogic serves the session management endpoints.
type SessionLogic struct {
	ctx  context.Context
	core *core.Core
	rc   RequestContext
}

func NewSessionLogic(ctx context.Context, core *core.Core, rc RequestContext) *SessionLogic {
	return &SessionLogic{ctx: ctx, core: core, rc: rc}
}

func (l *SessionLogic) GetOrCreate() (*types.Session, error) {
	session, err := l.core.Store().SessionStore().FindOrCreate(l.ctx, l.rc.AppName, l.rc.UserID, l.rc.Channel, l.rc.CredentialHash)
	if err != nil {
		return nil, errors.Trace("SessionLogic.GetOrCreate", err)
	}
	return session, nil
}

func (l *SessionLogic) List() ([]string, error) {
	ids, err := l.core.Store().SessionStore().ListByUser(l.ctx, l.rc.AppName, l.rc.UserID)
	if err != nil {
		return nil, errors.Trace("SessionLogic.List", err)
	}
	return ids, nil
}

func (l *SessionLogic) History(sessionID string, limit int) ([]types.ChatMessage, error) {
	msgs, err := l.core.Store().SessionStore().History(l.ctx, l.rc.AppName, sessionID, limit)
	if err != nil {
		return nil, errors.Trace("SessionLogic.History", err)
	}
	return msgs, nil
}

func (l *SessionLogic) Delete(sessionID string) error {
	if err := l.core.Store().SessionStore().Delete(l.ctx, l.rc.AppName, sessionID); err != nil {
		return errors.Trace("SessionLogic.Delete", err)
	}
	return nil
}
