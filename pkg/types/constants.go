package types

import "time"

const (
	USER_ROLE_USER      = "user"
	USER_ROLE_ASSISTANT = "assistant"
	USER_ROLE_SYSTEM    = "system"
)

// Intent categories produced by the router. Every inbound message is
// dispatched to exactly one of these.
const (
	CATEGORY_PROFILE_INFO      = "profile_info"
	CATEGORY_PROFILE_UPDATE    = "profile_update"
	CATEGORY_CERTIFICATE_ISSUE = "certificate_issue"
	CATEGORY_TICKET            = "ticket"
	CATEGORY_GENERAL           = "general"
)

const (
	DEFAULT_APP_NAME = "kb-support-agent"

	// Session records slide on every write and disappear a day after
	// the last activity.
	SESSION_TTL          = 24 * time.Hour
	SESSION_MAX_MESSAGES = 100
	SESSION_TRIM_KEEP    = 80

	PROFILE_CACHE_TTL = 30 * time.Minute

	// Cosine score below which embedding matches are discarded.
	VECTOR_SCORE_THRESHOLD = 0.6
	// Normalized 0-100 fuzzy score floor for the fallback matcher.
	FUZZY_SCORE_THRESHOLD = 60

	REWRITE_MIN_TOKENS = 4
)
