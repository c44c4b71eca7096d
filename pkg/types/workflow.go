package types

import "time"

type WorkflowKind string

const (
	WORKFLOW_KIND_MOBILE_UPDATE WorkflowKind = "mobile_update"
	WORKFLOW_KIND_NAME_UPDATE   WorkflowKind = "name_update"
	WORKFLOW_KIND_EMAIL_UPDATE  WorkflowKind = "email_update"
)

type WorkflowStep string

const (
	STEP_INITIAL WorkflowStep = "initial"
	// Mobile updates challenge the caller for the number currently on
	// the profile before anything else.
	STEP_CURRENT_VALUE_CHALLENGE WorkflowStep = "current_value_challenge"
	STEP_CURRENT_VALUE_VERIFIED  WorkflowStep = "current_value_verified"
	STEP_NEW_VALUE_COLLECTED     WorkflowStep = "new_value_collected"
	STEP_OTP_CHALLENGE           WorkflowStep = "otp_challenge"
	STEP_OTP_VERIFY              WorkflowStep = "otp_verify"
	STEP_APPLY                   WorkflowStep = "apply"
	STEP_DONE                    WorkflowStep = "done"
	STEP_ABORTED                 WorkflowStep = "aborted"
)

// WorkflowState is the persisted state machine position of one guarded
// profile-update workflow.
type WorkflowState struct {
	Kind        WorkflowKind `json:"kind"`
	Step        WorkflowStep `json:"step"`
	TargetField string       `json:"target_field"`

	// CurrentValueClaim is what the user claims the on-record value is,
	// kept until it has been checked against the profile.
	CurrentValueClaim string `json:"current_value_claim,omitempty"`
	NewValue          string `json:"new_value,omitempty"`

	// OTPDestination is the number or address the code was sent to. For
	// mobile updates this is the NEW number, for name and email updates
	// the registered one.
	OTPDestination string `json:"otp_destination,omitempty"`
	OTPAttempts    int    `json:"otp_attempts,omitempty"`

	VerifiedFlags map[string]bool `json:"verified_flags,omitempty"`

	UpdatedAt int64 `json:"updated_at"`
}

func (w WorkflowState) Terminal() bool {
	return w.Step == STEP_DONE || w.Step == STEP_ABORTED
}

// AwaitingOTP reports whether the next user message is expected to be an
// OTP code. The router uses this to suppress short-message rewriting.
func (w WorkflowState) AwaitingOTP() bool {
	return w.Step == STEP_OTP_CHALLENGE || w.Step == STEP_OTP_VERIFY
}

func (w WorkflowState) WithStep(step WorkflowStep) WorkflowState {
	w.Step = step
	w.UpdatedAt = time.Now().Unix()
	return w
}

func (w WorkflowState) Verified(flag string) bool {
	return w.VerifiedFlags[flag]
}

func (w WorkflowState) SetVerified(flag string) WorkflowState {
	flags := make(map[string]bool, len(w.VerifiedFlags)+1)
	for k, v := range w.VerifiedFlags {
		flags[k] = v
	}
	flags[flag] = true
	w.VerifiedFlags = flags
	return w
}
