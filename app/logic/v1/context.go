package v1

import (
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

// RequestContext carries the authenticated identity of one request. It
// is built once by the middleware and never mutated afterwards.
type RequestContext struct {
	AppName        string
	UserID         string
	Channel        string
	CredentialHash string
	SessionID      string
	Language       string
	Anonymous      bool
}

// CacheKey derives the profile-cache key. Binding the credential hash
// into the key means a credential rotation naturally misses the old
// entry instead of serving data fetched under stale auth.
func (r RequestContext) CacheKey() string {
	return utils.MD5(r.UserID + ":" + r.CredentialHash)
}
