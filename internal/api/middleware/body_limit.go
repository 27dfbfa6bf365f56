package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"competencias/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// 声明长度超限直接返回 413；未声明长度时由 MaxBytesReader 在读取时截断，
// 绑定阶段得到 *http.MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
