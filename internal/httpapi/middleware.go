// Package httpapi exposes the cache's serving surface: range-aware video
// streaming, thumbnails, status, playback-index control, and a diagnostic
// dashboard, built on gin in the style of the teacher's handler package.
package httpapi

import "github.com/gin-gonic/gin"

// SecurityHeadersMiddleware adds standard HTTP hardening headers to every
// response. This is an ambient HTTP concern, not tied to any auth domain
// feature, so it is carried over unchanged from the teacher's middleware.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}
