package igot

import (
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

const (
	STATUS_NOT_STARTED = "not_started"
	STATUS_IN_PROGRESS = "in_progress"
	STATUS_COMPLETED   = "completed"
)

// CleanEnrollments converts the raw enrollment list into trimmed
// records, keeping only entries of the given primary category.
func CleanEnrollments(raw []map[string]any, category string) []types.EnrollmentRecord {
	records := make([]types.EnrollmentRecord, 0, len(raw))
	for _, item := range raw {
		if enrollmentCategory(item) != category {
			continue
		}

		rec := types.EnrollmentRecord{
			ContentID:   asString(item["courseId"]),
			ContentName: asString(item["courseName"]),
			ContentType: category,
			Status:      statusLabel(item["status"]),
		}
		if rec.ContentID == "" {
			rec.ContentID = asString(item["contentId"])
		}

		if content, ok := item["content"].(map[string]any); ok {
			if rec.ContentName == "" {
				rec.ContentName = asString(content["name"])
			}
		}

		if pct, ok := item["completionPercentage"].(float64); ok {
			rec.CompletionPercent = pct
		}
		rec.EnrolledDate = asString(item["enrolledDate"])
		rec.CompletedOn = asString(item["completedOn"])
		if ts, ok := item["lastContentAccessTime"].(float64); ok {
			rec.LastAccessTime = int64(ts)
		}

		if certs, ok := item["issuedCertificates"].([]any); ok && len(certs) > 0 {
			rec.CertificateIssued = true
			rec.IssuedCertificates = len(certs)
			if first, ok := certs[0].(map[string]any); ok {
				rec.CertificateID = asString(first["identifier"])
				if rec.CertificateID == "" {
					rec.CertificateID = asString(first["token"])
				}
			}
		}

		records = append(records, rec)
	}
	return records
}

// SummarizeEnrollments aggregates cleaned records into the per-user
// summary. KarmaPoints is filled separately.
func SummarizeEnrollments(courses, events []types.EnrollmentRecord) types.EnrollmentSummary {
	summary := types.EnrollmentSummary{
		TotalCourses: len(courses),
		TotalEvents:  len(events),
	}
	for _, rec := range courses {
		switch rec.Status {
		case STATUS_COMPLETED:
			summary.CompletedCourses++
		case STATUS_IN_PROGRESS:
			summary.InProgressCourses++
		default:
			summary.NotStartedCourses++
		}
		summary.CertificatesIssued += rec.IssuedCertificates
	}
	for _, rec := range events {
		summary.CertificatesIssued += rec.IssuedCertificates
	}
	return summary
}

// statusLabel maps the platform's numeric progress status. 0 is
// enrolled but untouched, 1 is in progress, 2 is completed.
func statusLabel(v any) string {
	status, ok := v.(float64)
	if !ok {
		return STATUS_NOT_STARTED
	}
	switch int(status) {
	case 2:
		return STATUS_COMPLETED
	case 1:
		return STATUS_IN_PROGRESS
	default:
		return STATUS_NOT_STARTED
	}
}

func enrollmentCategory(item map[string]any) string {
	if content, ok := item["content"].(map[string]any); ok {
		if cat := asString(content["primaryCategory"]); cat != "" {
			return cat
		}
	}
	if cat := asString(item["primaryCategory"]); cat != "" {
		return cat
	}
	return "Course"
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
