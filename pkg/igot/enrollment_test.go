package igot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/igot"
)

func rawEnrollment(name string, status float64, certs int, category string) map[string]any {
	item := map[string]any{
		"courseId":             "do_" + name,
		"courseName":           name,
		"status":               status,
		"completionPercentage": status * 50,
		"content": map[string]any{
			"name":            name,
			"primaryCategory": category,
		},
	}
	if certs > 0 {
		list := make([]any, 0, certs)
		for i := 0; i < certs; i++ {
			list = append(list, map[string]any{"identifier": "cert-1"})
		}
		item["issuedCertificates"] = list
	}
	return item
}

func Test_CleanEnrollments(t *testing.T) {
	raw := []map[string]any{
		rawEnrollment("Data Science Primer", 2, 1, "Course"),
		rawEnrollment("POSH Awareness", 1, 0, "Course"),
		rawEnrollment("Leadership Summit", 2, 1, "Event"),
		rawEnrollment("Untouched Course", 0, 0, "Course"),
	}

	courses := igot.CleanEnrollments(raw, "Course")
	events := igot.CleanEnrollments(raw, "Event")

	assert.Len(t, courses, 3)
	assert.Len(t, events, 1)

	assert.Equal(t, igot.STATUS_COMPLETED, courses[0].Status)
	assert.Equal(t, "cert-1", courses[0].CertificateID)
	assert.True(t, courses[0].CertificateIssued)

	assert.Equal(t, igot.STATUS_IN_PROGRESS, courses[1].Status)
	assert.False(t, courses[1].CertificateIssued)

	assert.Equal(t, igot.STATUS_NOT_STARTED, courses[2].Status)
}

func Test_SummarizeEnrollments(t *testing.T) {
	raw := []map[string]any{
		rawEnrollment("A", 2, 1, "Course"),
		rawEnrollment("B", 2, 1, "Course"),
		rawEnrollment("C", 1, 0, "Course"),
		rawEnrollment("D", 0, 0, "Course"),
		rawEnrollment("E", 2, 1, "Event"),
	}
	courses := igot.CleanEnrollments(raw, "Course")
	events := igot.CleanEnrollments(raw, "Event")

	summary := igot.SummarizeEnrollments(courses, events)
	assert.Equal(t, 4, summary.TotalCourses)
	assert.Equal(t, 1, summary.TotalEvents)
	assert.Equal(t, 2, summary.CompletedCourses)
	assert.Equal(t, 1, summary.InProgressCourses)
	assert.Equal(t, 1, summary.NotStartedCourses)
	assert.Equal(t, 3, summary.CertificatesIssued)
}

func Test_CleanEnrollments_MissingFields(t *testing.T) {
	raw := []map[string]any{
		{"contentId": "do_x"},
	}
	courses := igot.CleanEnrollments(raw, "Course")
	assert.Len(t, courses, 1)
	assert.Equal(t, "do_x", courses[0].ContentID)
	assert.Equal(t, igot.STATUS_NOT_STARTED, courses[0].Status)
}
