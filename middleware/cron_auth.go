package middleware

import (
	"net/http"
	"strings"

	"github.com/rizalgs/adimology/config"
	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware protects the scheduled-trigger endpoint. The hosted
// cron sends its secret as a bearer token; requests without it are rejected
// unless no secret is configured (local development).
func CronAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.AppConfig.CronSecret
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		provided := strings.TrimPrefix(authHeader, "Bearer ")
		if provided != secret {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid cron secret",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
