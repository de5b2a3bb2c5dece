// Package middleware holds the gateway's edge middleware.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/auth/token"
	appErrors "github.com/caffein/school-platform/pkg/errors"
	"github.com/caffein/school-platform/pkg/response"
)

// Identity headers forwarded to downstream services after token validation.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// publicPaths are reachable without a token.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// publicSuffixes match auth endpoints that must stay open under any API prefix.
var publicSuffixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
}

// Authenticate validates the bearer token at the edge and stamps the verified
// identity onto the request before it is proxied downstream.
func Authenticate(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := publicPaths[path]; ok {
			c.Next()
			return
		}
		for _, suffix := range publicSuffixes {
			if strings.HasSuffix(path, suffix) {
				c.Next()
				return
			}
		}

		authz := c.GetHeader("Authorization")
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		// Strip any client-supplied identity headers before trusting our own.
		c.Request.Header.Del(HeaderUserID)
		c.Request.Header.Del(HeaderUserRoles)
		c.Request.Header.Set(HeaderUserID, claims.UserID)
		c.Request.Header.Set(HeaderUserRoles, strings.Join(claims.Roles, ","))
		c.Next()
	}
}
