package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/core"
	v1 "github.com/KB-iGOT/kb-support-agent-service-sub000/app/logic/v1"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/cmd/service/middleware"
)

type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

func (s *HttpSrv) requestContext(c *gin.Context) v1.RequestContext {
	userID := c.GetString(middleware.USER_ID_CONTEXT_KEY)
	anonymous := userID == ""
	if anonymous {
		// Anonymous sessions are scoped per client address so they do
		// not bleed into each other.
		userID = "anonymous:" + c.ClientIP()
	}
	channel := c.GetHeader("X-Channel")
	if channel == "" {
		channel = "web"
	}
	return v1.RequestContext{
		AppName:        s.Core.Cfg().AppName,
		UserID:         userID,
		Channel:        channel,
		CredentialHash: c.GetString(middleware.CREDENTIAL_HASH_CONTEXT_KEY),
		SessionID:      c.GetString(middleware.SESSION_ID_CONTEXT_KEY),
		Language:       c.GetString(response.LANG_CONTEXT_KEY),
		Anonymous:      anonymous,
	}
}
