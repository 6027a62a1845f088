package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	appErrors "github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

// GateHandler accepts the site password and mints the passed-gate cookie.
type GateHandler struct {
	keeper *iauth.GateKeeper
	secure bool
}

// NewGateHandler constructs a GateHandler. A nil keeper means the gate is
// disabled and submissions always succeed.
func NewGateHandler(keeper *iauth.GateKeeper, secureCookies bool) *GateHandler {
	return &GateHandler{keeper: keeper, secure: secureCookies}
}

type gateRequest struct {
	Password string `json:"password" validate:"required"`
}

// POST /api/gate
func (h *GateHandler) Submit(c *gin.Context) {
	var req gateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if h.keeper == nil {
		response.Success(c, http.StatusOK, gin.H{"passed": true})
		return
	}

	if !h.keeper.VerifyPassword(req.Password) {
		response.Error(c, appErrors.New("gate.invalid_password", "Incorrect password", http.StatusUnauthorized))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(iauth.GateCookieName, h.keeper.IssueToken(), int(h.keeper.TTL().Seconds()), "/", "", h.secure, true)
	response.Success(c, http.StatusOK, gin.H{"passed": true})
}
