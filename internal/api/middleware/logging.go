// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ctxRequestID = "request_id"
	ctxLogger    = "logger"

	headerRequestID = "X-Request-ID"
)

// quietRoutes are polled by orchestrators and scrapers; they log at debug.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

// LoggingMiddleware attaches a request-scoped logger and writes one access
// line per request.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// RequestLogger assigns the request id and stores a logger carrying it,
// plus the thread id when the route has one.
func (m *LoggingMiddleware) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(headerRequestID, requestID)

		fields := m.logger.With().Str("request_id", requestID)
		if threadID := c.Param("threadId"); threadID != "" {
			fields = fields.Str("thread_id", threadID)
		}
		logger := fields.Logger()
		c.Set(ctxLogger, &logger)

		c.Next()
	}
}

// Logger writes the access log line after the handler chain has run.
func (m *LoggingMiddleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		logger := GetRequestLogger(c)

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case quietRoutes[c.FullPath()]:
			event = logger.Debug()
		default:
			event = logger.Info()
		}

		if user := GetUser(c); user != nil {
			event = event.Str("user_id", user.ID)
		}

		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("request completed")
	}
}

// GetRequestLogger returns the request-scoped logger, or the global logger
// outside a request chain.
func GetRequestLogger(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if logger, ok := v.(*zerolog.Logger); ok {
			return logger
		}
	}
	return &log.Logger
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
