package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/httputil"
)

// ErrorHandler logs errors attached to the context and renders the last one
// when no handler wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			kind := apperrors.KindOf(e.Err)
			event := log.Warn()
			if kind == "" || kind == apperrors.KindUnavailable {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("kind", string(kind)).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if !c.Writer.Written() {
			httputil.RespondWithError(c, c.Errors.Last().Err)
		}
	}
}
