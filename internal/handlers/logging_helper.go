package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger scopes logger to one request: its id, matched route and the
// authenticated caller, if any.
func requestLogger(logger *zap.SugaredLogger, c *gin.Context) *zap.SugaredLogger {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return logger.With(
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"route", c.FullPath(),
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"uid", c.GetString("uid"),
	)
}

// logFailure records a request that ended in a 5xx. Blob backend outages log
// as warnings.
func logFailure(logger *zap.SugaredLogger, c *gin.Context, upstream bool, err error, msg string, fields []interface{}) {
	l := requestLogger(logger, c).With(fields...)
	if upstream {
		l.Warnw(msg, "error", err)
		return
	}
	l.Errorw(msg, "error", err)
}

func (h *AuthHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logFailure(h.logger, c, false, err, msg, fields)
}

func (h *AuthHandler) logUpstream(c *gin.Context, err error, msg string, fields ...interface{}) {
	logFailure(h.logger, c, true, err, msg, fields)
}

func (h *EntryHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	logFailure(h.logger, c, false, err, msg, fields)
}

func (h *EntryHandler) logUpstream(c *gin.Context, err error, msg string, fields ...interface{}) {
	logFailure(h.logger, c, true, err, msg, fields)
}
