// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates the two non-public surfaces of the bot:
//   - the Telegram webhook, via the secret path segment and, when configured,
//     the X-Telegram-Bot-Api-Secret-Token header Telegram echoes back
//   - the admin API, via a static bearer token
//
// All secret comparisons are constant-time. Authenticated webhook traffic is
// flagged so the rate limiter lets Telegram's delivery bursts through.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderTelegramSecret is the header Telegram sets on webhook deliveries when
// the webhook was registered with a secret_token.
const HeaderTelegramSecret = "X-Telegram-Bot-Api-Secret-Token"

// Context keys used internally.
const (
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
	ctxKeyPrincipal  = "principal"   // string: "telegram" | "admin"
)

// WebhookOptions configures WebhookAuth.
type WebhookOptions struct {
	// PathSecret must equal the :secret route parameter.
	PathSecret string
	// HeaderToken, when non-empty, must equal HeaderTelegramSecret.
	HeaderToken string
	// Param names the route parameter holding the path secret. Defaults to "secret".
	Param string
}

// WebhookAuth rejects webhook deliveries whose secrets do not match with a
// 404, so the endpoint does not reveal that it exists.
func WebhookAuth(opts WebhookOptions) gin.HandlerFunc {
	param := opts.Param
	if param == "" {
		param = "secret"
	}
	return func(c *gin.Context) {
		if !secretEqual(c.Param(param), opts.PathSecret) {
			abortJSON(c, http.StatusNotFound, "not_found", "route not found")
			return
		}
		if opts.HeaderToken != "" && !secretEqual(c.GetHeader(HeaderTelegramSecret), opts.HeaderToken) {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid webhook token")
			return
		}
		c.Set(ctxKeyPrincipal, "telegram")
		c.Set(ctxKeyRateBypass, true)
		c.Next()
	}
}

// AdminAuth requires "Authorization: Bearer <token>".
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || !secretEqual(strings.TrimSpace(got), token) {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		c.Set(ctxKeyPrincipal, "admin")
		c.Next()
	}
}

// Principal returns who authenticated the request, or "" when nobody did.
func Principal(c *gin.Context) string {
	v, _ := c.Get(ctxKeyPrincipal)
	s, _ := v.(string)
	return s
}

// secretEqual compares in constant time. An empty expected value never matches.
func secretEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
