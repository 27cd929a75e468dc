package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/common/metrics"
)

// RequestLogger logs every request and records its latency by route.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(latency.Seconds())

		log.Debug("http request", map[string]interface{}{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"latency":  latency.String(),
			"clientIp": c.ClientIP(),
		})
	}
}

// Cors allows the funnel front end to call the API from any origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, "+AdminPINHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AdminPIN gates the dashboard routes behind the configured PIN.
func AdminPIN(pin string, errs *apperrors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminPINHeader)
		if pin == "" || subtle.ConstantTimeCompare([]byte(got), []byte(pin)) != 1 {
			errs.Respond(c, apperrors.NewUnauthorizedError("invalid admin PIN"))
			return
		}
		c.Next()
	}
}
