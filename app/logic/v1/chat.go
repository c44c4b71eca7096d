package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/workflow"
)

// ChatLogic drives one conversation turn end to end: session lookup,
// routing, workflow or handler dispatch, and history persistence.
type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	rc   RequestContext

	profile *ProfileLogic
	router  *IntentRouter
	engine  *workflow.Engine
}

func NewChatLogic(ctx context.Context, core *core.Core, rc RequestContext) *ChatLogic {
	engine := workflow.NewEngine(core.Store().SessionStore())
	engine.Register(NewMobileUpdateWorkflow(core, rc))
	engine.Register(NewNameUpdateWorkflow(core, rc))
	engine.Register(NewEmailUpdateWorkflow(core, rc))

	return &ChatLogic{
		ctx:     ctx,
		core:    core,
		rc:      rc,
		profile: NewProfileLogic(ctx, core, rc),
		router:  NewIntentRouter(ctx, core),
		engine:  engine,
	}
}

type ChatResult struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Reply     string `json:"reply"`
}

// HandleMessage processes one user turn and returns the assistant's
// reply. Upstream outages degrade to an apology instead of surfacing a
// raw failure mid-conversation.
func (l *ChatLogic) HandleMessage(message string) (*ChatResult, error) {
	started := time.Now()

	session, err := l.resolveSession()
	if err != nil {
		return nil, errors.Trace("ChatLogic.HandleMessage", err)
	}

	route, err := l.router.Route(message, session)
	if err != nil {
		return nil, errors.Trace("ChatLogic.HandleMessage", err)
	}

	reply, err := l.dispatch(session, route)
	if err != nil {
		switch errors.KindOf(err) {
		case errors.KindExternalService:
			slog.Error("upstream failure during chat turn",
				slog.String("session_id", session.ID),
				slog.String("category", route.Category),
				slog.Any("error", err),
			)
			reply = "Sorry, I am having trouble reaching our systems right now. Please try that again in a moment."
		case errors.KindAuthorizationMismatch:
			slog.Warn("current-value challenge failed",
				slog.String("session_id", session.ID),
				slog.String("user_id", l.rc.UserID),
			)
			reply = replyMobileMismatch
		case errors.KindPostVerificationApply:
			slog.Error("post-verification apply failed",
				slog.String("session_id", session.ID),
				slog.Any("error", err),
			)
			reply = "I verified your OTP but could not save the change. Nothing on your profile was modified; please start the update again."
		default:
			return nil, errors.Trace("ChatLogic.HandleMessage", err)
		}
	}

	now := time.Now().Unix()
	if _, err := l.core.Store().SessionStore().AppendMessage(l.ctx, session.AppName, session.ID,
		types.ChatMessage{
			ID:        utils.GenUUID(),
			Role:      types.USER_ROLE_USER,
			Content:   message,
			Category:  route.Category,
			Timestamp: now,
		},
		types.ChatMessage{
			ID:        utils.GenUUID(),
			Role:      types.USER_ROLE_ASSISTANT,
			Content:   reply,
			Timestamp: now,
		},
	); err != nil {
		return nil, errors.Trace("ChatLogic.HandleMessage", err)
	}

	l.core.Metrics().ChatTurns.WithLabelValues(route.Category).Inc()
	l.core.Metrics().ChatLatency.WithLabelValues(route.Category).Observe(time.Since(started).Seconds())

	return &ChatResult{
		SessionID: session.ID,
		Category:  route.Category,
		Reply:     reply,
	}, nil
}

func (l *ChatLogic) resolveSession() (*types.Session, error) {
	if l.rc.SessionID != "" {
		session, err := l.core.Store().SessionStore().Get(l.ctx, l.rc.AppName, l.rc.SessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}
	return l.core.Store().SessionStore().FindOrCreate(l.ctx, l.rc.AppName, l.rc.UserID, l.rc.Channel, l.rc.CredentialHash)
}

// dispatch sends the turn to the in-flight workflow when one exists,
// otherwise to the handler for the routed category.
func (l *ChatLogic) dispatch(session *types.Session, route RouteResult) (string, error) {
	kind, runWorkflow := l.workflowKind(session, route)
	if runWorkflow {
		if l.rc.Anonymous {
			return "Please sign in before changing profile details. I can help with general questions in the meantime.", nil
		}
		entry, err := l.profile.GetOrFetch(session)
		if err != nil {
			return "", errors.Trace("ChatLogic.dispatch", err)
		}
		reply, err := l.engine.Step(l.ctx, session, kind, workflow.Request{
			Message: route.Query,
			Profile: entry,
		})
		if err != nil {
			return "", errors.Trace("ChatLogic.dispatch", err)
		}
		return reply.Text, nil
	}

	switch route.Category {
	case types.CATEGORY_PROFILE_INFO:
		return l.handleProfileInfo(route.Query)
	case types.CATEGORY_PROFILE_UPDATE:
		// Routed as an update but no recognizable field.
		return "I can update your name, email address or mobile number. Which one would you like to change?", nil
	case types.CATEGORY_CERTIFICATE_ISSUE:
		return l.handleCertificate(session, route.Query)
	case types.CATEGORY_TICKET:
		return l.handleTicket(route.Query)
	default:
		return l.handleGeneral(session, route.Query)
	}
}

// workflowKind decides whether this turn belongs to a workflow. An
// explicit update request for a specific field always wins, so a user
// can abandon one update by starting another; anything else while a
// workflow is in flight is treated as its next input.
func (l *ChatLogic) workflowKind(session *types.Session, route RouteResult) (types.WorkflowKind, bool) {
	if route.Category == types.CATEGORY_PROFILE_UPDATE {
		if kind, ok := DetectUpdateKind(route.Query); ok {
			return kind, true
		}
	}
	if active, ok := l.engine.Active(session); ok {
		return active, true
	}
	return "", false
}
