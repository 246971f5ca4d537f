package middleware

import (
	"bytes"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"

	// maxLoggedBody caps how much of an error response is copied into the log.
	maxLoggedBody = 1024
)

// quietPaths are probed constantly and only logged when they fail.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RequestIDMiddleware ensures every request has a request_id available in headers and context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Next()
	}
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

func callerUID(c *gin.Context) string {
	if s, ok := c.Get("uid"); ok {
		if uid, ok := s.(string); ok {
			return uid
		}
	}
	return ""
}

// RequestLoggingMiddleware logs one line per request with status, duration and caller
func RequestLoggingMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		blw := &bodyLogWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		_, quiet := quietPaths[c.Request.URL.Path]
		if quiet && status < http.StatusBadRequest {
			return
		}

		fields := []interface{}{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_out", c.Writer.Size(),
			"client_ip", c.ClientIP(),
			"user_uid", callerUID(c),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Errorw("request completed with server error", append(fields, "response", blw.body.String())...)
		case status >= http.StatusBadRequest:
			logger.Warnw("request completed with client error", append(fields, "response", blw.body.String())...)
		default:
			logger.Infow("request completed", fields...)
		}
	}
}

// RecoveryMiddleware converts panics to 500 responses and logs stack traces with context
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"request_id", c.GetString("request_id"),
					"panic", r,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"user_uid", callerUID(c),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}
