package v1

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/workflow"
)

const (
	replyAskCurrentMobile = "For your security, please enter the mobile number currently registered on your profile."
	replyAskNewMobile     = "Thanks, that matches our records. What is the new mobile number you want to use?"
	replyInvalidMobile    = "That does not look like a valid 10-digit mobile number. Please enter it again."
	replySameMobile       = "That number is already registered on your profile. Enter a different number, or tell me if you want to keep it."
	replyOTPSentNew       = "I have sent a verification code to your new number. Please enter the OTP to confirm the change."
	replyOTPSentCurrent   = "I have sent a verification code to your registered mobile number. Please enter the OTP to confirm the change."
	replyAskOTPAgain      = "Please enter the 4 to 6 digit OTP you received."
	replyOTPIncorrect     = "That OTP does not match. Please check the code and enter it again."
	replyMobileMismatch   = "That does not match the mobile number on your profile. Please enter the correct current mobile number to proceed."
	replyMobileUpdated    = "Done. Your mobile number has been updated."
	replyNameUpdated      = "Done. Your name has been updated."
	replyEmailUpdated     = "Done. Your email address has been updated."
	replyAskNewName       = "What should your name be changed to?"
	replyAskNewEmail      = "What email address would you like on your profile?"
	replyInvalidEmail     = "That does not look like a valid email address. Please enter it again."
)

type updateWorkflowBase struct {
	core *core.Core
	rc   RequestContext
}

func (w updateWorkflowBase) invalidateProfile(ctx context.Context) {
	if err := w.core.Store().ProfileCacheStore().Delete(ctx, w.rc.CacheKey()); err != nil {
		// The cache still ages out on its own TTL; log and move on.
		slog.Error("failed to invalidate profile cache after update",
			slog.String("user_id", w.rc.UserID),
			slog.Any("error", err),
		)
	}
}

func (w updateWorkflowBase) outcome(kind types.WorkflowKind, outcome string) {
	w.core.Metrics().WorkflowOutcome.WithLabelValues(string(kind), outcome).Inc()
}

// extractOTP pulls a 4 to 6 digit code out of the message.
func extractOTP(signals workflow.Signals, message string) string {
	if signals.OTPCode != "" {
		return signals.OTPCode
	}
	if utils.IsOTP(message) {
		return strings.TrimSpace(message)
	}
	for _, length := range []int{6, 5, 4} {
		if code := utils.ExtractDigitRun(message, length); code != "" {
			return code
		}
	}
	return ""
}

func extractMobile(signal, message string) string {
	if signal != "" {
		return utils.NormalizeMobile(signal)
	}
	if m := utils.ExtractDigitRun(message, 10); m != "" {
		return m
	}
	return utils.NormalizeMobile(message)
}

// MobileUpdateWorkflow is the two-factor mobile change: the caller must
// first prove they know the currently registered number, then verify an
// OTP delivered to the NEW number before anything is written.
type MobileUpdateWorkflow struct {
	updateWorkflowBase
}

func NewMobileUpdateWorkflow(core *core.Core, rc RequestContext) *MobileUpdateWorkflow {
	return &MobileUpdateWorkflow{updateWorkflowBase{core: core, rc: rc}}
}

func (w *MobileUpdateWorkflow) Kind() types.WorkflowKind {
	return types.WORKFLOW_KIND_MOBILE_UPDATE
}

func (w *MobileUpdateWorkflow) Transition(ctx context.Context, req workflow.Request) (types.WorkflowState, workflow.Reply, error) {
	state := req.State

	switch state.Step {
	case types.STEP_INITIAL:
		state.TargetField = "mobile"
		return state.WithStep(types.STEP_CURRENT_VALUE_CHALLENGE), workflow.Reply{Text: replyAskCurrentMobile}, nil

	case types.STEP_CURRENT_VALUE_CHALLENGE:
		claim := extractMobile(req.Signals.CurrentValueClaim, req.Message)
		if !utils.IsMobile(claim) {
			return state, workflow.Reply{Text: replyInvalidMobile}, nil
		}
		registered := utils.NormalizeMobile(req.Profile.Mobile())
		if claim != registered {
			// The workflow stays at the challenge step; the caller can
			// simply retype the correct number. No OTP has been sent.
			w.outcome(w.Kind(), "mismatch")
			return state, workflow.Reply{}, errors.New("MobileUpdateWorkflow.Transition", i18n.ERROR_MOBILE_MISMATCH,
				fmt.Errorf("claimed current mobile does not match profile record")).
				Code(http.StatusForbidden).Kind(errors.KindAuthorizationMismatch)
		}
		state = state.SetVerified("current_mobile")
		state.CurrentValueClaim = claim
		return state.WithStep(types.STEP_CURRENT_VALUE_VERIFIED), workflow.Reply{Text: replyAskNewMobile}, nil

	case types.STEP_CURRENT_VALUE_VERIFIED:
		newMobile := extractMobile(req.Signals.NewValue, req.Message)
		if !utils.IsMobile(newMobile) {
			return state, workflow.Reply{Text: replyInvalidMobile}, nil
		}
		if newMobile == utils.NormalizeMobile(req.Profile.Mobile()) {
			return state, workflow.Reply{Text: replySameMobile}, nil
		}
		// The OTP goes to the NEW number: the change only lands if the
		// caller actually controls it.
		if err := w.core.Srv().Igot().GenerateOTP(ctx, "phone", newMobile); err != nil {
			w.core.Metrics().UpstreamErrors.WithLabelValues("igot").Inc()
			return state, workflow.Reply{}, errors.Trace("MobileUpdateWorkflow.Transition", err)
		}
		state.NewValue = newMobile
		state.OTPDestination = newMobile
		return state.WithStep(types.STEP_OTP_VERIFY), workflow.Reply{Text: replyOTPSentNew}, nil

	case types.STEP_OTP_CHALLENGE, types.STEP_OTP_VERIFY:
		code := extractOTP(req.Signals, req.Message)
		if code == "" {
			return state, workflow.Reply{Text: replyAskOTPAgain}, nil
		}
		ok, err := w.core.Srv().Igot().VerifyOTP(ctx, "phone", state.OTPDestination, code)
		if err != nil {
			w.core.Metrics().UpstreamErrors.WithLabelValues("igot").Inc()
			return state, workflow.Reply{}, errors.Trace("MobileUpdateWorkflow.Transition", err)
		}
		if !ok {
			// Stay put: the destination and collected value survive so
			// the user can simply retype the code.
			state.OTPAttempts++
			return state.WithStep(types.STEP_OTP_VERIFY), workflow.Reply{Text: replyOTPIncorrect}, nil
		}
		state = state.SetVerified("otp")

		if err := w.core.Srv().Igot().UpdateProfile(ctx, w.rc.UserID, map[string]any{"mobile": state.NewValue}); err != nil {
			w.outcome(w.Kind(), "apply_failed")
			return state, workflow.Reply{}, errors.New("MobileUpdateWorkflow.UpdateProfile", i18n.ERROR_PROFILE_UPDATE_FAILED, err).
				Code(http.StatusBadGateway).Kind(errors.KindPostVerificationApply)
		}
		w.invalidateProfile(ctx)
		w.outcome(w.Kind(), "completed")
		return state.WithStep(types.STEP_DONE), workflow.Reply{Text: replyMobileUpdated}, nil
	}

	return state, workflow.Reply{}, errors.New("MobileUpdateWorkflow.Transition", i18n.ERROR_INTERNAL,
		fmt.Errorf("unexpected step %s", state.Step)).Kind(errors.KindStateCorruption)
}

// singleFactorUpdate drives the name and email workflows: collect the
// new value, verify one OTP sent to the registered mobile, apply.
type singleFactorUpdate struct {
	updateWorkflowBase
	kind        types.WorkflowKind
	field       string
	askValue    string
	invalidHint string
	doneReply   string

	extract func(signals workflow.Signals, message string) string
	valid   func(value string) bool
	fields  func(value string) map[string]any
}

func (w *singleFactorUpdate) Kind() types.WorkflowKind {
	return w.kind
}

func (w *singleFactorUpdate) Transition(ctx context.Context, req workflow.Request) (types.WorkflowState, workflow.Reply, error) {
	state := req.State

	switch state.Step {
	case types.STEP_INITIAL, types.STEP_NEW_VALUE_COLLECTED:
		value := w.extract(req.Signals, req.Message)
		if state.Step == types.STEP_INITIAL && value == "" {
			state.TargetField = w.field
			return state.WithStep(types.STEP_NEW_VALUE_COLLECTED), workflow.Reply{Text: w.askValue}, nil
		}
		if !w.valid(value) {
			return state, workflow.Reply{Text: w.invalidHint}, nil
		}

		registered := utils.NormalizeMobile(req.Profile.Mobile())
		if !utils.IsMobile(registered) {
			w.outcome(w.kind, "no_registered_mobile")
			return state.WithStep(types.STEP_ABORTED), workflow.Reply{
				Text: "There is no mobile number on your profile to send a verification code to, so I cannot make this change here. Please raise a support ticket instead.",
			}, nil
		}
		// OTP goes to the number already on record; the new value is
		// what changes, not the proof of identity.
		if err := w.core.Srv().Igot().GenerateOTP(ctx, "phone", registered); err != nil {
			w.core.Metrics().UpstreamErrors.WithLabelValues("igot").Inc()
			return state, workflow.Reply{}, errors.Trace("singleFactorUpdate.Transition", err)
		}
		state.TargetField = w.field
		state.NewValue = value
		state.OTPDestination = registered
		return state.WithStep(types.STEP_OTP_VERIFY), workflow.Reply{Text: replyOTPSentCurrent}, nil

	case types.STEP_OTP_CHALLENGE, types.STEP_OTP_VERIFY:
		code := extractOTP(req.Signals, req.Message)
		if code == "" {
			return state, workflow.Reply{Text: replyAskOTPAgain}, nil
		}
		ok, err := w.core.Srv().Igot().VerifyOTP(ctx, "phone", state.OTPDestination, code)
		if err != nil {
			w.core.Metrics().UpstreamErrors.WithLabelValues("igot").Inc()
			return state, workflow.Reply{}, errors.Trace("singleFactorUpdate.Transition", err)
		}
		if !ok {
			state.OTPAttempts++
			return state.WithStep(types.STEP_OTP_VERIFY), workflow.Reply{Text: replyOTPIncorrect}, nil
		}
		state = state.SetVerified("otp")

		if err := w.core.Srv().Igot().UpdateProfile(ctx, w.rc.UserID, w.fields(state.NewValue)); err != nil {
			w.outcome(w.kind, "apply_failed")
			return state, workflow.Reply{}, errors.New("singleFactorUpdate.UpdateProfile", i18n.ERROR_PROFILE_UPDATE_FAILED, err).
				Code(http.StatusBadGateway).Kind(errors.KindPostVerificationApply)
		}
		w.invalidateProfile(ctx)
		w.outcome(w.kind, "completed")
		return state.WithStep(types.STEP_DONE), workflow.Reply{Text: w.doneReply}, nil
	}

	return state, workflow.Reply{}, errors.New("singleFactorUpdate.Transition", i18n.ERROR_INTERNAL,
		fmt.Errorf("unexpected step %s", state.Step)).Kind(errors.KindStateCorruption)
}

func NewNameUpdateWorkflow(core *core.Core, rc RequestContext) workflow.Handler {
	return &singleFactorUpdate{
		updateWorkflowBase: updateWorkflowBase{core: core, rc: rc},
		kind:               types.WORKFLOW_KIND_NAME_UPDATE,
		field:              "name",
		askValue:           replyAskNewName,
		invalidHint:        "I could not make out the new name. Please type just the name you want on your profile.",
		doneReply:          replyNameUpdated,
		extract:            extractNewName,
		valid: func(v string) bool {
			return v != "" && !strings.ContainsAny(v, "0123456789@")
		},
		fields: func(v string) map[string]any {
			first, last := splitName(v)
			fields := map[string]any{"firstName": first}
			if last != "" {
				fields["lastName"] = last
			}
			return fields
		},
	}
}

func NewEmailUpdateWorkflow(core *core.Core, rc RequestContext) workflow.Handler {
	return &singleFactorUpdate{
		updateWorkflowBase: updateWorkflowBase{core: core, rc: rc},
		kind:               types.WORKFLOW_KIND_EMAIL_UPDATE,
		field:              "email",
		askValue:           replyAskNewEmail,
		invalidHint:        replyInvalidEmail,
		doneReply:          replyEmailUpdated,
		extract: func(signals workflow.Signals, message string) string {
			if signals.NewValue != "" {
				return signals.NewValue
			}
			return utils.ExtractEmail(message)
		},
		valid: utils.IsEmail,
		fields: func(v string) map[string]any {
			return map[string]any{"email": v}
		},
	}
}

// extractNewName pulls the intended name out of phrasings like "change
// my name to Asha Rao". A bare short message is taken as the name
// itself once the workflow has asked for it.
func extractNewName(signals workflow.Signals, message string) string {
	if signals.NewValue != "" {
		return strings.TrimSpace(signals.NewValue)
	}
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)
	if idx := strings.LastIndex(lower, " to "); idx >= 0 {
		return strings.TrimSpace(msg[idx+4:])
	}
	if strings.Contains(lower, "name") || strings.Contains(lower, "update") || strings.Contains(lower, "change") {
		return ""
	}
	if utils.TokenCount(msg) <= 4 {
		return msg
	}
	return ""
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
