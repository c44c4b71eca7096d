package service

import (
	"github.com/KB-iGOT/kb-support-agent-service-sub000/app/response"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/cmd/service/handler"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/cmd/service/middleware"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/metrics"
)

func serve(s *handler.HttpSrv) {
	localizer := i18n.NewLocalizer("en", "hi")

	s.Engine.Use(
		middleware.Cors(),
		middleware.I18n(),
		response.ProvideResponseLocalizer(localizer),
	)

	s.Engine.GET("/healthz", s.Healthz)
	s.Engine.GET("/metrics", metrics.GinHandler())

	// Anonymous callers get general Q&A only; anything needing a
	// profile degrades inside the logic layer.
	public := s.Engine.Group("/api/v1/public")
	public.Use(
		middleware.TryAuthenticate(),
		middleware.RateLimit(s.Core.Cfg().RateLimit),
	)
	public.POST("/chat/message", s.SendMessage)

	api := s.Engine.Group("/api/v1")
	api.Use(
		middleware.Authenticate(),
		middleware.RateLimit(s.Core.Cfg().RateLimit),
	)
	{
		api.POST("/chat/message", s.SendMessage)

		api.GET("/profile/summary", s.GetProfileSummary)
		api.DELETE("/profile/cache", s.InvalidateProfile)

		api.GET("/session", s.GetSession)
		api.GET("/sessions", s.ListSessions)
		api.GET("/session/:sessionID/history", s.GetSessionHistory)
		api.DELETE("/session/:sessionID", s.DeleteSession)
	}
}
