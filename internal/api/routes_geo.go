package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chalkboardhq/chalkboard/internal/directory"
	"github.com/chalkboardhq/chalkboard/internal/handlers"
)

func registerGeoRoutes(api *gin.RouterGroup, svc *directory.Service) error {
	handler, err := handlers.NewGeoHandler(svc)
	if err != nil {
		return err
	}

	geo := api.Group("/geo")
	{
		geo.GET("/districts", handler.ListDistricts)
		geo.GET("/schools", handler.ListSchools)
	}
	return nil
}
