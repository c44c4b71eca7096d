package types

import (
	"strings"
	"time"
)

// EnrollmentRecord is one cleaned course or event enrollment. Raw
// upstream payloads carry far more than this; cleaning keeps only what
// conversations need.
type EnrollmentRecord struct {
	ContentID   string `json:"content_id"`
	ContentName string `json:"content_name"`
	ContentType string `json:"content_type"`
	// Status is the normalized label: not_started, in_progress or
	// completed.
	Status             string  `json:"status"`
	CompletionPercent  float64 `json:"completion_percent"`
	CertificateID      string  `json:"certificate_id,omitempty"`
	CertificateIssued  bool    `json:"certificate_issued"`
	EnrolledDate       string  `json:"enrolled_date,omitempty"`
	CompletedOn        string  `json:"completed_on,omitempty"`
	LastAccessTime     int64   `json:"last_access_time,omitempty"`
	IssuedCertificates int     `json:"issued_certificates,omitempty"`
}

// EnrollmentSummary is the aggregate view over a user's enrollments,
// cheap enough to ship on every turn.
type EnrollmentSummary struct {
	TotalCourses       int `json:"total_courses"`
	CompletedCourses   int `json:"completed_courses"`
	InProgressCourses  int `json:"in_progress_courses"`
	NotStartedCourses  int `json:"not_started_courses"`
	TotalEvents        int `json:"total_events"`
	CertificatesIssued int `json:"certificates_issued"`
	KarmaPoints        int `json:"karma_points"`
}

// CacheEntry is the full profile projection held in the profile cache.
type CacheEntry struct {
	UserID         string `json:"user_id"`
	CredentialHash string `json:"credential_hash"`

	// Profile is the cleaned upstream profile document. Accessors below
	// cover the fields the workflows touch.
	Profile map[string]any `json:"profile"`

	Courses []EnrollmentRecord `json:"courses,omitempty"`
	Events  []EnrollmentRecord `json:"events,omitempty"`

	Enrollment EnrollmentSummary `json:"enrollment"`

	FetchedAt int64 `json:"fetched_at"`
}

// CacheSummary is the light projection stored alongside the full entry,
// small enough to inline into prompts.
type CacheSummary struct {
	UserID     string            `json:"user_id"`
	FullName   string            `json:"full_name"`
	Email      string            `json:"email,omitempty"`
	Mobile     string            `json:"mobile,omitempty"`
	Department string            `json:"department,omitempty"`
	Enrollment EnrollmentSummary `json:"enrollment"`
	FetchedAt  int64             `json:"fetched_at"`
}

func (e *CacheEntry) profileString(key string) string {
	if e.Profile == nil {
		return ""
	}
	if v, ok := e.Profile[key].(string); ok {
		return v
	}
	return ""
}

func (e *CacheEntry) FirstName() string { return e.profileString("firstName") }
func (e *CacheEntry) LastName() string  { return e.profileString("lastName") }
func (e *CacheEntry) Email() string     { return e.profileString("email") }
func (e *CacheEntry) Mobile() string    { return e.profileString("mobile") }

func (e *CacheEntry) FullName() string {
	name := strings.TrimSpace(e.FirstName() + " " + e.LastName())
	if name == "" {
		name = e.profileString("userName")
	}
	return name
}

func (e *CacheEntry) Department() string {
	if v := e.profileString("department"); v != "" {
		return v
	}
	return e.profileString("channel")
}

// Expired reports whether the entry has outlived ttl. The cache layer
// also relies on key expiry; this guards the in-process copy.
func (e *CacheEntry) Expired(ttl time.Duration) bool {
	return time.Since(time.Unix(e.FetchedAt, 0)) > ttl
}

// Summary builds the light projection from the full entry.
func (e *CacheEntry) Summary() CacheSummary {
	return CacheSummary{
		UserID:     e.UserID,
		FullName:   e.FullName(),
		Email:      e.Email(),
		Mobile:     e.Mobile(),
		Department: e.Department(),
		Enrollment: e.Enrollment,
		FetchedAt:  e.FetchedAt,
	}
}
