package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/middleware"
	"github.com/chalkboardhq/chalkboard/internal/services"
	appErrors "github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/response"
)

// OnboardingHandler manages the teacher onboarding profile.
type OnboardingHandler struct {
	svc *services.ProfileService
}

// NewOnboardingHandler constructs an OnboardingHandler instance.
func NewOnboardingHandler(db *gorm.DB) (*OnboardingHandler, error) {
	svc, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	return &OnboardingHandler{svc: svc}, nil
}

type completeOnboardingRequest struct {
	SchoolName      string   `json:"school_name" validate:"required,min=1,max=200"`
	State           string   `json:"state" validate:"required,len=2"`
	Grades          []string `json:"grades" validate:"required,min=1"`
	YearsExperience int      `json:"years_experience" validate:"gte=0,lte=60"`
}

// POST /api/onboarding
func (h *OnboardingHandler) Complete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req completeOnboardingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.svc.CompleteOnboarding(requestContext(c), services.CompleteOnboardingInput{
		UserID:          userID,
		SchoolName:      req.SchoolName,
		State:           req.State,
		Grades:          req.Grades,
		YearsExperience: req.YearsExperience,
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotSynced) {
			// The identity webhook has not mirrored this user yet; the
			// client should retry shortly.
			response.Error(c, appErrors.New("onboarding.user_not_synced", "Account is still being set up, try again shortly", http.StatusConflict))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// GET /api/onboarding
func (h *OnboardingHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.svc.GetProfile(requestContext(c), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, profile)
}
