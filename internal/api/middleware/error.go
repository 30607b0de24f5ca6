package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// ErrorHandler runs after every handler and turns whatever landed in
// c.Errors into one JSON body, switching HTTP status on the RenderError's
// Kind rather than letting a handler pick a status ad hoc.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.WithField("error", err.Error()).Error("Request error")

		if re, ok := err.Err.(*rerrors.RenderError); ok {
			c.JSON(statusForKind(re.Kind), gin.H{"error": re.Message, "code": string(re.Kind)})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": string(rerrors.KindInternal)})
	}
}

func statusForKind(kind rerrors.Kind) int {
	switch kind {
	case rerrors.KindInvalidInput:
		return http.StatusBadRequest
	case rerrors.KindMissingInput, rerrors.KindJobNotFound:
		return http.StatusNotFound
	case rerrors.KindTimeout:
		return http.StatusRequestTimeout
	case rerrors.KindBusy:
		return http.StatusConflict
	case rerrors.KindToolchainFailure, rerrors.KindStreamCopyConcatFailed, rerrors.KindWatermarkRequired:
		return http.StatusUnprocessableEntity
	case rerrors.KindCancelled:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
