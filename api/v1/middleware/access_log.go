package middleware

import (
	"time"

	"portal_gateway/internal/httpx"
	"portal_gateway/internal/portal"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccessLog writes one structured line per request. Page requests also carry
// the router decision.
func AccessLog(logger *logrus.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("component", "access")

	return func(c *gin.Context) {
		start := time.Now()
		// The router rewrites the path; log what the client asked for.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"host":       c.Request.Host,
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(httpx.RequestIDKey),
		}
		if query != "" {
			fields["query"] = query
		}
		if d, ok := portal.DecisionFrom(c); ok {
			fields["rule"] = d.Rule
			fields["kind"] = d.Kind
			fields["locale"] = d.Locale
			if d.Template != "" {
				fields["template"] = d.Template
			}
			if d.Kind == portal.KindRedirect {
				fields["location"] = d.Location
			} else {
				fields["target"] = d.Path
			}
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request served")
		}
	}
}
