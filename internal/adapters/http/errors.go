package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/livepoll/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		if errors.Is(err, domain.ErrUsernameTaken) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPolicy:
		if errors.Is(err, domain.ErrRateLimited) {
			return http.StatusTooManyRequests
		}
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortError writes the error body. Internal errors are logged and never
// leak their text.
func abortError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":   domain.CodeOf(err),
		"message": domain.MessageOf(err),
	})
}

func bindError(c *gin.Context, err error) {
	abortError(c, domain.Invalid("%s", err.Error()))
}
