package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
)

func signSessionToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	verifier, err := iauth.NewStaticKeyVerifier(secret)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", Auth(verifier), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id)
	})
	return router
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	router := newAuthRouter(t, "session-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "session-secret", "user_1", time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user_1", rec.Body.String())
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	router := newAuthRouter(t, "session-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: signSessionToken(t, "session-secret", "user_2", time.Hour)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user_2", rec.Body.String())
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := newAuthRouter(t, "session-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadSignature(t *testing.T) {
	router := newAuthRouter(t, "session-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "wrong-secret", "user_3", time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	router := newAuthRouter(t, "session-secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "session-secret", "user_4", -time.Minute))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
