package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chalkboardhq/chalkboard/internal/directory"
	"github.com/chalkboardhq/chalkboard/internal/geo"
	appErrors "github.com/chalkboardhq/chalkboard/pkg/errors"
	"github.com/chalkboardhq/chalkboard/pkg/logger"
	"github.com/chalkboardhq/chalkboard/pkg/response"
	"go.uber.org/zap"
)

// GeoHandler serves district and school directory lookups backed by the
// cached upstream directory.
type GeoHandler struct {
	svc *directory.Service
}

// NewGeoHandler constructs a GeoHandler instance.
func NewGeoHandler(svc *directory.Service) (*GeoHandler, error) {
	if svc == nil {
		return nil, errors.New("geo handler: directory service is required")
	}
	return &GeoHandler{svc: svc}, nil
}

// GET /api/geo/districts?state=CO
func (h *GeoHandler) ListDistricts(c *gin.Context) {
	state := strings.ToUpper(strings.TrimSpace(c.Query("state")))
	if len(state) != 2 {
		response.Error(c, appErrors.NewBadRequest("state must be a two-letter USPS abbreviation"))
		return
	}

	fips, ok := geo.FIPSForState(state)
	if !ok {
		response.Error(c, appErrors.NewBadRequest("unknown state abbreviation "+state))
		return
	}

	districts, err := h.svc.DistrictsByFIPS(requestContext(c), fips)
	if err != nil {
		logger.WithModule("geo").Error("district lookup failed",
			zap.String("state", state),
			zap.Int("fips", fips),
			zap.Error(err),
		)
		response.Error(c, appErrors.ErrDirectoryUpstream)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"districts": districts})
}

// GET /api/geo/schools?leaid=0803450
func (h *GeoHandler) ListSchools(c *gin.Context) {
	leaid := strings.TrimSpace(c.Query("leaid"))
	if len(leaid) < 3 || len(leaid) > 20 {
		response.Error(c, appErrors.NewBadRequest("leaid must be between 3 and 20 characters"))
		return
	}

	schools, err := h.svc.SchoolsByLEAID(requestContext(c), leaid)
	if err != nil {
		logger.WithModule("geo").Error("school lookup failed",
			zap.String("leaid", leaid),
			zap.Error(err),
		)
		response.Error(c, appErrors.ErrDirectoryUpstream)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"schools": schools})
}
