package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/KB-iGOT/kb-support-agent-service-sub000/app/logic/v1"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/utils"
)

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage handles one conversation turn.
func (s *HttpSrv) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewChatLogic(c.Request.Context(), s.Core, s.requestContext(c)).HandleMessage(req.Message)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

// GetProfileSummary exposes the cached profile summary.
func (s *HttpSrv) GetProfileSummary(c *gin.Context) {
	summary, err := v1.NewProfileLogic(c.Request.Context(), s.Core, s.requestContext(c)).Summary()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, summary)
}

// InvalidateProfile drops the caller's cached profile so the next turn
// fetches fresh data.
func (s *HttpSrv) InvalidateProfile(c *gin.Context) {
	if err := v1.NewProfileLogic(c.Request.Context(), s.Core, s.requestContext(c)).Invalidate(); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
