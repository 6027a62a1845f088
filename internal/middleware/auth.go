package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

const (
	// CtxUserIDKey carries the verified provider user id.
	CtxUserIDKey = "userID"

	// SessionCookieName is the cookie the hosted identity provider sets on
	// the application domain.
	SessionCookieName = "__session"
)

// Auth enforces a verified identity-provider session, taken from the
// Authorization header or the session cookie.
func Auth(verifier iauth.SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.Subject)
		c.Next()
	}
}

// UserID extracts the authenticated user id placed by Auth.
func UserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}
