package middleware

import (
	"context"
	"strings"

	"codeduel/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader   = "X-Trace-Id"
	requestIDHeader = "X-Request-Id"
)

// TraceContextMiddleware keeps the caller's trace and request ids, or mints
// new ones, and exposes them to handlers, logs, verdict events and the
// response headers. The trace id spans a whole duel submission across
// services; the request id names this hop only.
func TraceContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = propagate(c, ctx, traceIDHeader, contextkey.TraceID)
		ctx = propagate(c, ctx, requestIDHeader, contextkey.RequestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func propagate(c *gin.Context, ctx context.Context, header string, key contextkey.Key) context.Context {
	id := strings.TrimSpace(c.GetHeader(header))
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Set(key.String(), id)
	c.Writer.Header().Set(header, id)
	return contextkey.With(ctx, key, id)
}
