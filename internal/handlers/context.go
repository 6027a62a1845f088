package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext derives a context from the inbound request, falling back to
// context.Background for detached callers.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}
