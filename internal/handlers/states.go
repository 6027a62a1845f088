package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/services"
	appErrors "github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

// StateHandler serves the static US state reference list.
type StateHandler struct {
	svc *services.StateService
}

// NewStateHandler constructs a StateHandler instance.
func NewStateHandler(db *gorm.DB) (*StateHandler, error) {
	svc, err := services.NewStateService(db)
	if err != nil {
		return nil, err
	}
	return &StateHandler{svc: svc}, nil
}

// GET /api/us-states
func (h *StateHandler) List(c *gin.Context) {
	states, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, states)
}
