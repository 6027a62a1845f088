package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/handlers"
)

func registerStateRoutes(api *gin.RouterGroup, db *gorm.DB) error {
	handler, err := handlers.NewStateHandler(db)
	if err != nil {
		return err
	}

	api.GET("/us-states", handler.List)
	return nil
}
