package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/internal/handlers"
)

func registerGateRoutes(r *gin.Engine, keeper *iauth.GateKeeper, secureCookies bool) {
	handler := handlers.NewGateHandler(keeper, secureCookies)
	r.POST("/api/gate", handler.Submit)
}
