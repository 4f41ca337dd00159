package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID tags every request with an id, echoes it in the response
// header and stores a request-scoped logger in the request context. A
// caller-supplied X-Request-ID is kept when it is short printable ASCII.
//
// Once the handler chain returns it writes one access line with the route,
// status, latency and, on /agents/:id routes, the agent id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(RequestIDHeader)
		if !validRequestID(rid) {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		ctx := c.Request.Context()
		reqLog := logger.Ctx(ctx).With(zap.String("request_id", rid))
		ctx = context.WithValue(ctx, ctxKeyRequestID, rid)
		c.Request = c.Request.WithContext(logger.NewContext(ctx, reqLog))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := agentIDParam(c); ok {
			fields = append(fields, zap.Int64("agent_id", id))
		}
		reqLog.Info("Agents API request", fields...)
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func agentIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] < 0x21 || rid[i] > 0x7e {
			return false
		}
	}
	return true
}
