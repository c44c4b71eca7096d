package v1

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

// IntentRouter decides which handler a message belongs to. The model
// classifies first; deterministic keyword tables take over whenever the
// model is unavailable or undecided.
type IntentRouter struct {
	ctx  context.Context
	core *core.Core
}

func NewIntentRouter(ctx context.Context, core *core.Core) *IntentRouter {
	return &IntentRouter{ctx: ctx, core: core}
}

// RouteResult is the routing decision for one turn.
type RouteResult struct {
	Category string
	// Query is the message the downstream handler should act on. It
	// differs from the raw message only when a short follow-up was
	// rewritten into a standalone request.
	Query     string
	Rewritten bool
}

// Route classifies the message, rewriting short context-dependent
// follow-ups first when it is safe to do so.
func (l *IntentRouter) Route(message string, session *types.Session) (RouteResult, error) {
	query := strings.TrimSpace(message)
	result := RouteResult{Query: query}

	history := session.RecentMessages(10)

	if l.shouldRewrite(query, session) {
		rewritten, err := l.core.Srv().AI().Rephrase(l.ctx, query, history)
		if err != nil {
			// Routing must not die with the model; classify the raw
			// message instead.
			slog.Warn("rephrase failed, routing raw message",
				slog.String("session_id", session.ID),
				slog.Any("error", err),
			)
		} else if rewritten != query {
			result.Query = rewritten
			result.Rewritten = true
		}
	}

	category, err := l.core.Srv().AI().Classify(l.ctx, result.Query, history)
	if err != nil || category == "" {
		if err != nil {
			slog.Warn("model classification failed, using keyword fallback",
				slog.String("session_id", session.ID),
				slog.Any("error", err),
			)
		}
		category = classifyByKeywords(result.Query)
	}

	result.Category = category
	return result, nil
}

// shouldRewrite gates the short-message rewrite. Verification data
// (OTP codes, phone numbers, emails), anything typed while a workflow
// awaits input, and direct platform questions must pass through
// untouched; a rewrite could mangle the very value being verified.
func (l *IntentRouter) shouldRewrite(query string, session *types.Session) bool {
	if utils.TokenCount(query) >= types.REWRITE_MIN_TOKENS {
		return false
	}
	if len(session.Messages) == 0 {
		return false
	}
	if _, inFlight := session.ActiveWorkflow(); inFlight {
		return false
	}
	if isVerificationData(query) {
		return false
	}
	if isPlatformQuestion(query) {
		return false
	}
	return true
}

var confirmationWords = map[string]bool{
	"yes": true, "no": true, "ok": true, "okay": true, "confirm": true,
}

// isVerificationData matches values a user supplies during identity
// checks, including bare confirmations. A lone digit run like "9"
// counts: it may be the start of a number the user is typing out.
func isVerificationData(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return false
	}
	if confirmationWords[strings.ToLower(q)] {
		return true
	}
	if utils.IsOTP(q) || utils.IsMobile(q) || utils.IsEmail(q) {
		return true
	}
	digits := 0
	for _, r := range q {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > 0 && digits*2 >= len(q)
}

var platformQuestionKeywords = []string{
	"karmayogi", "igot", "platform", "portal", "website", "app",
	"login", "password", "parichay",
}

func isPlatformQuestion(query string) bool {
	q := strings.ToLower(query)
	return lo.SomeBy(platformQuestionKeywords, func(kw string) bool {
		return strings.Contains(q, kw)
	})
}

var updateFieldKeywords = []string{
	"mobile", "phone", "number", "email", "mail id", "name",
}

var updateActionKeywords = []string{
	"update", "change", "modify", "correct", "edit", "new",
}

var certificateKeywords = []string{
	"certificate", "certificates", "cert", "reissue", "re-issue",
	"not received my certificate", "certificate missing",
	"download certificate", "wrong name on certificate",
}

var ticketKeywords = []string{
	"ticket", "complaint", "grievance", "escalate", "raise an issue",
	"support request", "helpdesk",
}

var profileInfoKeywords = []string{
	"my profile", "my details", "my courses", "my enrollments",
	"my events", "karma point", "karma points", "how many courses",
	"completed courses", "my progress", "enrolled",
}

// classifyByKeywords is the deterministic fallback. Order matters:
// updates are checked before profile info so "change my email" does not
// land in the read-only handler.
func classifyByKeywords(query string) string {
	q := strings.ToLower(query)

	contains := func(keywords []string) bool {
		return lo.SomeBy(keywords, func(kw string) bool {
			return strings.Contains(q, kw)
		})
	}

	if contains(updateActionKeywords) && contains(updateFieldKeywords) {
		return types.CATEGORY_PROFILE_UPDATE
	}
	if contains(certificateKeywords) {
		return types.CATEGORY_CERTIFICATE_ISSUE
	}
	if contains(ticketKeywords) {
		return types.CATEGORY_TICKET
	}
	if contains(profileInfoKeywords) {
		return types.CATEGORY_PROFILE_INFO
	}
	return types.CATEGORY_GENERAL
}

// DetectUpdateKind maps an update request onto the workflow kind it
// should start, by the field it mentions.
func DetectUpdateKind(query string) (types.WorkflowKind, bool) {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "mobile") || strings.Contains(q, "phone") || strings.Contains(q, "number"):
		return types.WORKFLOW_KIND_MOBILE_UPDATE, true
	case strings.Contains(q, "email") || strings.Contains(q, "mail"):
		return types.WORKFLOW_KIND_EMAIL_UPDATE, true
	case strings.Contains(q, "name"):
		return types.WORKFLOW_KIND_NAME_UPDATE, true
	}
	return "", false
}
