package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
)

// ClientAddress resolves the caller's network address from proxy headers,
// falling back to the socket peer. The header order matches what the site's
// edge (reverse proxy, then CDN) populates.
func ClientAddress(c *gin.Context) string {
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		if first, _, found := strings.Cut(v, ","); found || first != "" {
			if addr := strings.TrimSpace(first); addr != "" {
				return addr
			}
		}
	}
	if v := strings.TrimSpace(c.GetHeader("X-Real-IP")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); v != "" {
		return v
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return domain.UnknownClient
}

// UserAgent returns the request's user agent or the unknown sentinel.
func UserAgent(c *gin.Context) string {
	if ua := c.Request.UserAgent(); ua != "" {
		return ua
	}
	return domain.UnknownClient
}
