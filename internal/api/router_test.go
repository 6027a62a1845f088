package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/app"
	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/internal/database/testutil"
	"github.com/chalkboardhq/chalkboard/internal/directory"
	"github.com/chalkboardhq/chalkboard/internal/middleware"
	"github.com/chalkboardhq/chalkboard/internal/models"
)

type staticUpstream struct {
	body string
}

func (s staticUpstream) Do(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
	}, nil
}

func testConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{
			Port:     8000,
			LogLevel: "info",
		},
		Directory: app.DirectoryConfig{
			BaseURL:      "https://directory.test/api/v1",
			Dataset:      "ccd",
			DataOrigin:   "urban_educationdata_ccd_api",
			DatasetYear:  2023,
			CacheTTLDays: 30,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}
}

func newTestRouter(t *testing.T, cfg *app.Config, gate *iauth.GateKeeper) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	repo, err := directory.NewGormRepository(db)
	require.NoError(t, err)
	svc, err := directory.NewService(cfg.Directory.Service(), repo,
		directory.WithHTTPClient(staticUpstream{body: `{"count":0,"next":null,"results":[]}`}))
	require.NoError(t, err)

	sessions, err := iauth.NewStaticKeyVerifier("session-secret")
	require.NoError(t, err)

	router, err := NewRouter(Dependencies{
		DB:        db,
		Config:    cfg,
		Directory: svc,
		Sessions:  sessions,
		Gate:      gate,
		RateStore: middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)
	return router, db
}

func sessionToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("session-secret"))
	require.NoError(t, err)
	return signed
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	for _, path := range []string{"/health", "/api/health", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterLookupsRequireSession(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	for _, path := range []string{"/api/us-states", "/api/geo/districts?state=CO", "/api/geo/schools?leaid=0803450"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterServesLookupsWithSession(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	for _, path := range []string{"/api/us-states", "/api/geo/districts?state=CO"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_lookup"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterOnboardingRequiresSession(t *testing.T) {
	router, db := newTestRouter(t, testConfig(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/onboarding", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, db.Create(&models.User{ID: "user_router"}).Error)

	body := `{"school_name":"Hilltop","state":"CO","grades":["K"],"years_experience":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/onboarding", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_router"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterGateBlocksAPI(t *testing.T) {
	keeper, err := iauth.NewGateKeeper("open-sesame", "gate-secret")
	require.NoError(t, err)
	router, _ := newTestRouter(t, testConfig(), keeper)

	// Gated routes demand a pass token before the session is even looked at.
	req := httptest.NewRequest(http.MethodGet, "/api/us-states", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_gate"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "gate.password_required")

	// Health and the gate endpoint itself stay reachable.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/gate", bytes.NewBufferString(`{"password":"open-sesame"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	// With the pass cookie and a session the gated routes open up.
	req = httptest.NewRequest(http.MethodGet, "/api/us-states", nil)
	req.AddCookie(cookies[0])
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_gate"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
