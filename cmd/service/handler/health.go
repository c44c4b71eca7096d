package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
)

// Healthz reports liveness plus whether the session store is reachable.
func (s *HttpSrv) Healthz(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if _, err := s.Core.Store().Cache().Get(c.Request.Context(), "healthz"); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response.Response{
		Meta: response.Meta{Code: code, Message: status},
		Data: gin.H{"app": s.Core.Cfg().AppName},
	})
}
