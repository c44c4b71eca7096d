package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// Signals is what the router could extract from the user's message
// before the workflow sees it.
type Signals struct {
	TargetField       string
	NewValue          string
	CurrentValueClaim string
	OTPCode           string
	Confirmed         bool
}

// Request is one user turn routed into a workflow.
type Request struct {
	Session *types.Session
	State   types.WorkflowState
	Message string
	Signals Signals
	Profile *types.CacheEntry
}

// Reply is the workflow's answer for this turn.
type Reply struct {
	Text string
	Done bool
}

// Handler implements one guarded workflow kind as a state machine. It
// returns the next state; the engine owns persistence.
type Handler interface {
	Kind() types.WorkflowKind
	Transition(ctx context.Context, req Request) (types.WorkflowState, Reply, error)
}

// StateStore is the slice of the session store the engine needs.
type StateStore interface {
	UpdateWorkflowState(ctx context.Context, appName, sessionID string, state types.WorkflowState) error
	ClearWorkflowState(ctx context.Context, appName, sessionID string, kind types.WorkflowKind) error
}

// Engine dispatches turns into registered workflow handlers and keeps
// the persisted state consistent with what each transition returned.
type Engine struct {
	handlers map[types.WorkflowKind]Handler
	store    StateStore
}

func NewEngine(store StateStore) *Engine {
	return &Engine{
		handlers: make(map[types.WorkflowKind]Handler),
		store:    store,
	}
}

func (e *Engine) Register(h Handler) {
	e.handlers[h.Kind()] = h
}

// Active returns the in-flight workflow kind for the session, if any.
func (e *Engine) Active(session *types.Session) (types.WorkflowKind, bool) {
	state, ok := session.ActiveWorkflow()
	if !ok {
		return "", false
	}
	return state.Kind, true
}

// Step runs one turn of the workflow of the given kind. Starting a
// different kind while another is in flight abandons the old one and
// starts fresh; a stale half-finished update must never leak into a new
// one.
func (e *Engine) Step(ctx context.Context, session *types.Session, kind types.WorkflowKind, req Request) (Reply, error) {
	handler, ok := e.handlers[kind]
	if !ok {
		return Reply{}, errors.New("Engine.Step.UnknownKind", i18n.ERROR_INTERNAL, fmt.Errorf("no handler for kind %s", kind)).Kind(errors.KindStateCorruption)
	}

	if active, inFlight := session.ActiveWorkflow(); inFlight && active.Kind != kind {
		slog.Warn("abandoning in-flight workflow for a new one",
			slog.String("session_id", session.ID),
			slog.String("old_kind", string(active.Kind)),
			slog.String("new_kind", string(kind)),
		)
		if err := e.clear(ctx, session, active.Kind); err != nil {
			return Reply{}, errors.Trace("Engine.Step", err)
		}
	}

	state, ok := session.Workflows[string(kind)]
	if !ok || state.Terminal() {
		state = types.WorkflowState{Kind: kind, Step: types.STEP_INITIAL}
	}
	req.State = state
	req.Session = session

	next, reply, err := handler.Transition(ctx, req)
	if err != nil {
		// A post-verification apply failure is terminal for the
		// workflow: the OTP has been consumed, so the state must not
		// stay resumable.
		if errors.KindOf(err) == errors.KindPostVerificationApply {
			if clearErr := e.clear(ctx, session, kind); clearErr != nil {
				slog.Error("failed to clear workflow after apply failure",
					slog.String("session_id", session.ID),
					slog.Any("error", clearErr),
				)
			}
		}
		return Reply{}, errors.Trace("Engine.Step", err)
	}

	if next.Terminal() {
		if err := e.clear(ctx, session, kind); err != nil {
			return Reply{}, errors.Trace("Engine.Step", err)
		}
		reply.Done = true
		return reply, nil
	}

	if err := e.store.UpdateWorkflowState(ctx, session.AppName, session.ID, next); err != nil {
		return Reply{}, errors.Trace("Engine.Step", err)
	}
	if session.Workflows == nil {
		session.Workflows = make(map[string]types.WorkflowState)
	}
	session.Workflows[string(kind)] = next
	return reply, nil
}

func (e *Engine) clear(ctx context.Context, session *types.Session, kind types.WorkflowKind) error {
	if err := e.store.ClearWorkflowState(ctx, session.AppName, session.ID, kind); err != nil {
		return err
	}
	delete(session.Workflows, string(kind))
	return nil
}
