package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/handlers"
)

func registerOnboardingRoutes(api *gin.RouterGroup, db *gorm.DB) error {
	handler, err := handlers.NewOnboardingHandler(db)
	if err != nil {
		return err
	}

	api.GET("/onboarding", handler.Get)
	api.POST("/onboarding", handler.Complete)
	return nil
}
