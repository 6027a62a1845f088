package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/handlers"
	"github.com/chalkboardhq/chalkboard/internal/webhook"
)

func registerWebhookRoutes(r *gin.Engine, db *gorm.DB, verifier webhook.Verifier) error {
	if verifier == nil {
		// No signing secret configured: drop deliveries instead of
		// accepting unverifiable ones.
		return nil
	}

	handler, err := handlers.NewWebhookHandler(db, verifier)
	if err != nil {
		return err
	}

	r.POST("/api/webhooks/identity", handler.Receive)
	return nil
}
