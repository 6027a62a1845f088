package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

// Gate blocks requests until the site password gate has been passed. A nil
// keeper disables the gate entirely.
func Gate(keeper *iauth.GateKeeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keeper == nil {
			c.Next()
			return
		}

		token, err := c.Cookie(iauth.GateCookieName)
		if err != nil || !keeper.CheckToken(token) {
			response.Error(c, errors.ErrGateRequired)
			c.Abort()
			return
		}

		c.Next()
	}
}
