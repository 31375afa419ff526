package response

import (
	"net/http"

	"codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of the auxiliary endpoints (compare, languages,
// healthz). Judge endpoints answer with a bare verdict instead.
type Response struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// Success sends a successful response with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.Success,
		Message: errors.Success.Message(),
		Data:    data,
		TraceID: getTraceID(c),
	})
}

// Verdict writes a judge result body without the envelope.
// Judge callers only branch on the body, so the status is always 200.
func Verdict(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Error sends an error envelope with the status mapped from the error code.
// Server-side failures are logged with their stack.
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	if customErr == nil {
		customErr = errors.New(errors.InternalServerError)
	}

	fields := []zap.Field{
		zap.Int("code", int(customErr.Code)),
		zap.String("message", customErr.Error()),
	}
	if len(customErr.Details) > 0 {
		fields = append(fields, zap.Any("details", customErr.Details))
	}
	if customErr.Code.ServerSide() {
		logger.Error(c.Request.Context(), "request error", append(fields, zap.String("stack", customErr.Stack))...)
	} else {
		logger.Warn(c.Request.Context(), "request rejected", fields...)
	}

	c.JSON(customErr.Code.HTTPStatus(), Response{
		Code:    customErr.Code,
		Message: customErr.Error(),
		Details: customErr.Details,
		TraceID: getTraceID(c),
	})
}

// BadRequest sends a 400 with InvalidParams.
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = errors.InvalidParams.Message()
	}
	Error(c, errors.New(errors.InvalidParams).WithMessage(message))
}

func getTraceID(c *gin.Context) string {
	return c.GetString("trace_id")
}
