package v1

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/ai"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/igot"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// handleProfileInfo answers read-only questions from the summary
// projection; it never needs the full entry.
func (l *ChatLogic) handleProfileInfo(query string) (string, error) {
	summary, err := l.profile.Summary()
	if err != nil {
		return "", errors.Trace("ChatLogic.handleProfileInfo", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is what I have on your profile, %s:\n", summary.FullName)
	if summary.Email != "" {
		fmt.Fprintf(&b, "- Email: %s\n", summary.Email)
	}
	if summary.Mobile != "" {
		fmt.Fprintf(&b, "- Mobile: %s\n", maskMobile(summary.Mobile))
	}
	if summary.Department != "" {
		fmt.Fprintf(&b, "- Department: %s\n", summary.Department)
	}
	fmt.Fprintf(&b, "- Courses: %d enrolled, %d completed, %d in progress\n",
		summary.Enrollment.TotalCourses, summary.Enrollment.CompletedCourses, summary.Enrollment.InProgressCourses)
	if summary.Enrollment.TotalEvents > 0 {
		fmt.Fprintf(&b, "- Events: %d\n", summary.Enrollment.TotalEvents)
	}
	if summary.Enrollment.CertificatesIssued > 0 {
		fmt.Fprintf(&b, "- Certificates issued: %d\n", summary.Enrollment.CertificatesIssued)
	}
	if summary.Enrollment.KarmaPoints > 0 {
		fmt.Fprintf(&b, "- Karma points: %d\n", summary.Enrollment.KarmaPoints)
	}
	return b.String(), nil
}

// handleCertificate re-issues the certificate for the completed course
// the user is talking about. When no course can be pinned down, it
// falls back to raising a ticket.
func (l *ChatLogic) handleCertificate(session *types.Session, query string) (string, error) {
	entry, err := l.profile.GetOrFetch(session)
	if err != nil {
		return "", errors.Trace("ChatLogic.handleCertificate", err)
	}

	completed := lo.Filter(entry.Courses, func(rec types.EnrollmentRecord, _ int) bool {
		return rec.Status == igot.STATUS_COMPLETED
	})
	if len(completed) == 0 {
		return "I do not see any completed courses on your profile yet. Certificates are issued only after a course is fully completed.", nil
	}

	rec, found := l.matchEnrollment(session, completed, query)
	if !found {
		if len(completed) == 1 {
			rec = completed[0]
		} else {
			names := lo.Map(completed, func(r types.EnrollmentRecord, _ int) string { return r.ContentName })
			return fmt.Sprintf("Which course is the certificate for? Your completed courses are: %s.", strings.Join(names, ", ")), nil
		}
	}

	if err := l.core.Srv().Igot().IssueCertificate(l.ctx, l.rc.UserID, rec.ContentID, ""); err != nil {
		return "", errors.Trace("ChatLogic.handleCertificate", err)
	}
	if err := l.profile.Invalidate(); err != nil {
		return "", errors.Trace("ChatLogic.handleCertificate", err)
	}
	return fmt.Sprintf("I have requested a fresh certificate for %q. It usually appears on your profile within a few hours.", rec.ContentName), nil
}

// matchEnrollment pins the query to one of the given records using the
// session's knowledge index.
func (l *ChatLogic) matchEnrollment(session *types.Session, records []types.EnrollmentRecord, query string) (types.EnrollmentRecord, bool) {
	matches := l.profile.Search(session, query, 1)
	if len(matches) == 0 {
		return types.EnrollmentRecord{}, false
	}
	for _, rec := range records {
		if rec.ContentID == matches[0].Entry.Source {
			return rec, true
		}
	}
	return types.EnrollmentRecord{}, false
}

// handleTicket raises a support ticket with the user's words as the
// description.
func (l *ChatLogic) handleTicket(query string) (string, error) {
	subject := query
	if len(subject) > 80 {
		subject = subject[:80]
	}
	ticketID, err := l.core.Srv().Igot().CreateTicket(l.ctx, l.rc.UserID, subject, query)
	if err != nil {
		return "", errors.Trace("ChatLogic.handleTicket", err)
	}
	if ticketID == "" {
		return "Your support ticket has been raised. The support team will reach out to you.", nil
	}
	return fmt.Sprintf("Your support ticket %s has been raised. The support team will reach out to you.", ticketID), nil
}

// handleGeneral answers everything else, grounding the model on the
// profile summary and whatever session knowledge matches the query.
func (l *ChatLogic) handleGeneral(session *types.Session, query string) (string, error) {
	system := ai.PROMPT_ANSWER

	if summary, err := l.profile.Summary(); err == nil && summary != nil {
		system += fmt.Sprintf("\n\nUser: %s. Courses: %d enrolled, %d completed.",
			summary.FullName, summary.Enrollment.TotalCourses, summary.Enrollment.CompletedCourses)
	}

	if len(session.VectorIndex) == 0 {
		if _, err := l.profile.GetOrFetch(session); err != nil {
			// Answer without grounding records rather than failing the
			// whole turn.
			slog.Warn("profile unavailable for grounding", slog.Any("error", err))
		}
	}
	if matches := l.profile.Search(session, query, 3); len(matches) > 0 {
		system += "\n\nRelevant records:"
		for _, m := range matches {
			system += "\n- " + m.Entry.Text
		}
	}

	history := append([]types.ChatMessage{}, session.RecentMessages(10)...)
	history = append(history, types.ChatMessage{Role: types.USER_ROLE_USER, Content: query})

	reply, err := l.core.Srv().AI().Generate(l.ctx, system, history)
	if err != nil {
		return "", errors.Trace("ChatLogic.handleGeneral", err)
	}
	return reply, nil
}

func maskMobile(mobile string) string {
	if len(mobile) < 4 {
		return mobile
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}
