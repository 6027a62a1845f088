package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chalkboardhq/chalkboard/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine) {
	r.GET("/health", handlers.Health())
	r.GET("/api/health", handlers.Health())
}
