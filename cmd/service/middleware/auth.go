package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

const (
	USER_ID_CONTEXT_KEY         = "__user_id"
	CREDENTIAL_HASH_CONTEXT_KEY = "__credential_hash"
	SESSION_ID_CONTEXT_KEY      = "__session_id"
)

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return strings.TrimSpace(auth)
}

// Authenticate requires the caller's identity headers. The credential
// itself is never stored, only its hash, which also keys the profile
// cache.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		token := bearerToken(c)
		if userID == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Meta: response.Meta{
					Code:    http.StatusUnauthorized,
					Message: i18n.ERROR_UNAUTHORIZED,
				},
			})
			return
		}

		c.Set(USER_ID_CONTEXT_KEY, userID)
		c.Set(CREDENTIAL_HASH_CONTEXT_KEY, utils.SHA256(token))
		if sessionID := strings.TrimSpace(c.GetHeader("X-Session-ID")); sessionID != "" {
			c.Set(SESSION_ID_CONTEXT_KEY, sessionID)
		}
		c.Next()
	}
}

// TryAuthenticate records the identity when present but lets anonymous
// requests through; handlers decide what anonymous callers may do.
func TryAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		token := bearerToken(c)
		if userID != "" && token != "" {
			c.Set(USER_ID_CONTEXT_KEY, userID)
			c.Set(CREDENTIAL_HASH_CONTEXT_KEY, utils.SHA256(token))
		}
		if sessionID := strings.TrimSpace(c.GetHeader("X-Session-ID")); sessionID != "" {
			c.Set(SESSION_ID_CONTEXT_KEY, sessionID)
		}
		c.Next()
	}
}
