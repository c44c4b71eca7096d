package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
)

type Response struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	LOCALIZER_CONTEXT_KEY = "__localizer"
	LANG_CONTEXT_KEY      = "__lang"
)

func ProvideResponseLocalizer(localizer i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(LOCALIZER_CONTEXT_KEY, localizer)
		c.Next()
	}
}

func localize(c *gin.Context, key string) string {
	val, exists := c.Get(LOCALIZER_CONTEXT_KEY)
	if !exists {
		return key
	}
	localizer, ok := val.(i18n.Localizer)
	if !ok {
		return key
	}
	lang := c.GetString(LANG_CONTEXT_KEY)
	if lang == "" {
		lang = i18n.DEFAULT_LANG
	}
	return localizer.Get(lang, key)
}

// APIError renders a failed request. Customized errors carry their own
// status code and message key; anything else is a plain 500.
func APIError(c *gin.Context, err error) {
	ce, ok := err.(*errors.CustomizedError)
	if !ok {
		slog.Error("request failed", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, Response{
			Meta: Meta{
				Code:    http.StatusInternalServerError,
				Message: localize(c, i18n.ERROR_INTERNAL),
			},
		})
		return
	}

	if ce.GetCode() >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Int("kind", int(ce.GetKind())),
			slog.Any("error", err),
		)
	}
	c.JSON(ce.GetCode(), Response{
		Meta: Meta{
			Code:    ce.GetCode(),
			Message: localize(c, ce.Message()),
		},
	})
}

func APISuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Meta: Meta{
			Code:    http.StatusOK,
			Message: "ok",
		},
		Data: data,
	})
}
