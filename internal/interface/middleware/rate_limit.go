package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/ratelimit"
	"github.com/aifinder/aifinder-api/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

type AllowFunc func(*gin.Context) bool // return true for bypass limit

// RateLimit enforces the per-route budget from the in-memory registry, keyed
// by client IP, with standard headers (limit/remaining/reset) and an optional
// allowlist bypass. Counters are per process.
func RateLimit(reg *ratelimit.Registry, allow AllowFunc) gin.HandlerFunc {
	if reg == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}

		// skip OPTIONS
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		route := normalizePath(c)
		res, err := reg.Consume(route, ipFromCtx(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if errors.Is(err, ratelimit.ErrRateLimited) {
			retry := int(res.RetryAfter.Seconds())
			c.Header("X-RateLimit-Reset", strconv.Itoa(retry))
			c.Header("Retry-After", strconv.Itoa(retry))
			resp := response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", gin.H{
				"retryAfterSeconds": retry,
			})
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Next()
	}
}
