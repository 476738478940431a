package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/apperr"
	"shortly-live/internal/config"
	"shortly-live/internal/models"
)

const internalMessage = "Internal Server Error"

// ErrorHandler renders the last error pushed with c.Error as the JSON error
// envelope. Production hides internal messages; details are only sent in
// development.
func ErrorHandler(environment string) gin.HandlerFunc {
	production := environment == config.EnvProduction
	exposeDetails := environment == config.EnvDevelopment

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := apperr.As(err)
		status := appErr.Kind.Status()

		entry := logrus.WithFields(logrus.Fields{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"kind":       appErr.Kind,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("request error")
		} else {
			entry.Debug("request error")
		}

		if c.Writer.Written() {
			return
		}

		resp := models.ErrorResponse{
			Error:     string(appErr.Kind),
			Message:   appErr.Message,
			RequestID: GetRequestID(c),
		}
		if production && status >= http.StatusInternalServerError {
			resp.Message = internalMessage
		}
		if exposeDetails {
			resp.Details = appErr.Details
		}
		c.AbortWithStatusJSON(status, resp)
	}
}

// NotFound is the handler for paths no route claims.
func NotFound(c *gin.Context) {
	_ = c.Error(&apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: fmt.Sprintf("The requested endpoint '%s %s' does not exist.", c.Request.Method, c.Request.URL.Path),
	})
	c.Abort()
}

// Recovery turns a panic into an InternalError for ErrorHandler to render.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		_ = c.Error(apperr.Internal(internalMessage, fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}
