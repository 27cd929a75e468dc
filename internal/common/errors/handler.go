package errors

import (
	"github.com/gin-gonic/gin"
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler renders taxonomy errors as JSON responses and logs them.
type ErrorHandler struct {
	logger Logger
}

type errorResponse struct {
	Error *StandardError `json:"error"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)
	if IsRetryableErrorCode(stdErr.Code) {
		c.Header("Retry-After", "5")
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: stdErr})
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"retryable":     IsRetryableErrorCode(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
		"path":          c.FullPath(),
		"method":        c.Request.Method,
	}
	if status >= 500 {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
