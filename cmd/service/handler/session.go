package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/KB-iGOT/kb-support-agent-service-sub000/app/logic/v1"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
)

// GetSession returns the caller's current session, creating one when
// none is live.
func (s *HttpSrv) GetSession(c *gin.Context) {
	session, err := v1.NewSessionLogic(c.Request.Context(), s.Core, s.requestContext(c)).GetOrCreate()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, session)
}

func (s *HttpSrv) ListSessions(c *gin.Context) {
	ids, err := v1.NewSessionLogic(c.Request.Context(), s.Core, s.requestContext(c)).List()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{"session_ids": ids})
}

func (s *HttpSrv) GetSessionHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	msgs, err := v1.NewSessionLogic(c.Request.Context(), s.Core, s.requestContext(c)).History(c.Param("sessionID"), limit)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{"messages": msgs})
}

func (s *HttpSrv) DeleteSession(c *gin.Context) {
	if err := v1.NewSessionLogic(c.Request.Context(), s.Core, s.requestContext(c)).Delete(c.Param("sessionID")); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
