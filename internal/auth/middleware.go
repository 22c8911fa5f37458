package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequirePrincipal verifies a bearer token, resolves it to an account, and
// injects the Principal into the request context. Unlike the websocket
// interceptor, the REST surface rejects explicitly: missing or failed
// authentication is a 401 to the caller.
func RequirePrincipal(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		p, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			if errors.Is(err, ErrSubjectMissing) {
				// Legacy token: tell the client to re-login rather than retry.
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token predates subject id, re-login required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := WithPrincipal(c.Request.Context(), p)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("principal", p)

		c.Next()
	}
}

// RequireAnyRole allows access if the bound principal has any of the given roles.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, err := PrincipalFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		for _, r := range p.Roles {
			if _, ok := allowedSet[r]; ok {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
