package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession normalises all session verification failures.
var ErrInvalidSession = errors.New("auth: invalid session token")

// Claims is the subset of session-token claims the application uses.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// SessionVerifier validates a session token minted by the hosted identity
// provider and extracts the provider user id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// StaticKeyVerifier verifies HS256 session tokens against a shared secret.
// Used for development and tests; production deployments verify against the
// provider JWKS instead.
type StaticKeyVerifier struct {
	key []byte
}

// NewStaticKeyVerifier builds an HS256 verifier from the shared secret.
func NewStaticKeyVerifier(secret string) (*StaticKeyVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	return &StaticKeyVerifier{key: []byte(secret)}, nil
}

// Verify parses and validates the token, requiring a subject and expiry.
func (v *StaticKeyVerifier) Verify(_ context.Context, token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidSession
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, ErrInvalidSession
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return Claims{}, ErrInvalidSession
	}

	return Claims{Subject: subject, ExpiresAt: expiry.Time}, nil
}

// OIDCVerifier validates session tokens against the identity provider's
// published JWKS. The provider discovery document is fetched once at
// construction.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier for the given issuer URL.
func NewOIDCVerifier(ctx context.Context, issuerURL string) (*OIDCVerifier, error) {
	if strings.TrimSpace(issuerURL) == "" {
		return nil, errors.New("auth: issuer URL is required")
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("auth: discover issuer %s: %w", issuerURL, err)
	}

	// Session tokens carry the frontend origin as audience, not a client id.
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

// Verify validates signature, issuer, and expiry via the remote key set.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Claims{}, ErrInvalidSession
	}
	if idToken.Subject == "" {
		return Claims{}, ErrInvalidSession
	}
	return Claims{Subject: idToken.Subject, ExpiresAt: idToken.Expiry}, nil
}
