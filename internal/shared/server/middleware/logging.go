package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coa-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can carry them.
const (
	CertificateIDKey    = "certificateId"
	ExtractionMethodKey = "extractionMethod"
)

// quietRoutes are probe endpoints logged only when they fail.
var quietRoutes = map[string]bool{
	"/api/v1/health": true,
	"/metrics":       true,
}

// Logging emits one request.complete line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if quietRoutes[c.FullPath()] && status < http.StatusInternalServerError {
			return
		}

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_out":   c.Writer.Size(),
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if id := c.GetString(CertificateIDKey); id != "" {
			fields["certificate_id"] = id
		}
		if method := c.GetString(ExtractionMethodKey); method != "" {
			fields["extraction_method"] = method
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields["errors"] = errs.String()
		}

		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
