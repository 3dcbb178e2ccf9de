package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/aifinder/aifinder-api/pkg/helpers"
	"github.com/aifinder/aifinder-api/pkg/response"
)

// Auth validates the Bearer session token issued through the identity
// provider integration. It sets clerkID and userEmail in the Gin context on
// success, hydrating name/email from the Redis session hash when present.
func Auth(rdb *redis.Client, session *helpers.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing session token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := session.Parse(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid session token", err.Error())
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		c.Set("clerkID", claims.ClerkID)
		c.Set("userEmail", claims.Email)

		// Best-effort enrichment from the cached session; the token alone is
		// authoritative.
		if rdb != nil {
			key := "user:session:" + claims.ClerkID
			if data, rErr := rdb.HGetAll(c.Request.Context(), key).Result(); rErr == nil && len(data) > 0 {
				c.Set("userName", data["name"])
				if data["email"] != "" {
					c.Set("userEmail", data["email"])
				}
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
