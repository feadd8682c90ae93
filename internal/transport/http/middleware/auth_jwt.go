package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-garage/internal/core/auth"
	resp "go-garage/internal/transport/http/response"
)

const (
	KeyUserID = "userId"
	KeyClaims = "claims"
)

// AuthJWT 解析 Bearer token，把 userId 放进 gin.Context
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, "invalid token"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Next()
	}
}
