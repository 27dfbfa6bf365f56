package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"competencias/backend/pkg/metrics"
)

// Metrics 记录 HTTP 请求数与耗时；route 取路由模板，未匹配的请求记为 "unmatched"
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
