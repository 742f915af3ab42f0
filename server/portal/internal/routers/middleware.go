package routers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BasicAuthMiddleware provides Basic HTTP Authentication for accessing protected routes.
// TODO: Move these credentials to configuration or a more secure storage
func BasicAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, hasAuth := c.Request.BasicAuth()

		if hasAuth && user == BasicAuthUser && pass == BasicAuthPassword {
			// Authentication successful
			c.Next()
		} else {
			// Authentication failed
			c.Writer.Header().Set("WWW-Authenticate", BasicAuthRealm)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgUnauthorized})
		}
	}
}

// ActorMiddleware 从请求头提取操作人身份写入上下文
// 网关完成认证后透传 X-User-Id / X-Username
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-Id"); raw != "" {
			if id, err := strconv.ParseInt(raw, Base10, BitSize64); err == nil && id > 0 {
				c.Set(UserIDContextKey, id)
			}
		}
		if username := c.GetHeader("X-Username"); username != "" {
			c.Set(UsernameContextKey, username)
		}
		c.Next()
	}
}
