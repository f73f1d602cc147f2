package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/llcformation/internal/onboarding/application"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
)

const actorKey = "onboarding.actor"

// StaffAuth 后台接口 Basic 认证
func StaffAuth(auth *application.StaffAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="onboarding-admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		actor, err := auth.Authenticate(username, password)
		if err != nil {
			logger.Warn(c.Request.Context(), "staff authentication failed", "username", username)
			c.Header("WWW-Authenticate", `Basic realm="onboarding-admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.ClientActor()
}
