package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
)

// I18n picks the response language from the Accept-Language header,
// falling back to the default for anything unsupported.
func I18n() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := strings.ToLower(strings.TrimSpace(c.GetHeader("Accept-Language")))
		if idx := strings.IndexAny(lang, ",;-"); idx > 0 {
			lang = lang[:idx]
		}
		if !i18n.ALLOW_LANG[lang] {
			lang = i18n.DEFAULT_LANG
		}
		c.Set(response.LANG_CONTEXT_KEY, lang)
		c.Next()
	}
}

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language, X-Session-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit enforces a per-client requests-per-second budget, keyed by
// the authenticated user when present and the remote address otherwise.
func RateLimit(perSecond int) gin.HandlerFunc {
	if perSecond <= 0 {
		perSecond = 10
	}
	limiters := cmap.New[*rate.Limiter]()

	return func(c *gin.Context) {
		key := c.GetString(USER_ID_CONTEXT_KEY)
		if key == "" {
			key = c.ClientIP()
		}

		limiter, ok := limiters.Get(key)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond*2)
			limiters.SetIfAbsent(key, limiter)
			limiter, _ = limiters.Get(key)
		}

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Meta: response.Meta{
					Code:    http.StatusTooManyRequests,
					Message: i18n.ERROR_TOO_MANY_REQUESTS,
				},
			})
			return
		}
		c.Next()
	}
}
