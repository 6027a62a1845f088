package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// GateCookieName is the cookie carrying a passed-gate token.
const GateCookieName = "chalkboard_gate"

// DefaultGateTTL bounds how long a passed gate stays valid.
const DefaultGateTTL = 7 * 24 * time.Hour

// GateKeeper implements the optional site-wide password gate: visitors submit
// the configured password once and receive a signed, expiring cookie token.
type GateKeeper struct {
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// GateOption customises the GateKeeper.
type GateOption func(*GateKeeper)

// WithGateTTL overrides the token lifetime.
func WithGateTTL(ttl time.Duration) GateOption {
	return func(g *GateKeeper) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithGateNow overrides the clock for tests.
func WithGateNow(now func() time.Time) GateOption {
	return func(g *GateKeeper) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateKeeper builds the gate from the configured password and signing
// secret. An empty signing secret generates a random one, which invalidates
// issued tokens across restarts.
func NewGateKeeper(password, signingSecret string, opts ...GateOption) (*GateKeeper, error) {
	if strings.TrimSpace(password) == "" {
		return nil, errors.New("auth: gate password is required")
	}

	secret := []byte(signingSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("auth: generate gate secret: %w", err)
		}
	}

	g := &GateKeeper{
		password: password,
		secret:   secret,
		ttl:      DefaultGateTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// VerifyPassword checks a submitted password. Configured values starting with
// a bcrypt prefix are treated as hashes; anything else is compared in constant
// time.
func (g *GateKeeper) VerifyPassword(submitted string) bool {
	if strings.HasPrefix(g.password, "$2a$") || strings.HasPrefix(g.password, "$2b$") || strings.HasPrefix(g.password, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(g.password), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(submitted)) == 1
}

// IssueToken returns a signed token embedding its expiry.
func (g *GateKeeper) IssueToken() string {
	expiry := strconv.FormatInt(g.now().Add(g.ttl).Unix(), 10)
	return expiry + "." + g.sign(expiry)
}

// CheckToken reports whether a token is authentic and unexpired.
func (g *GateKeeper) CheckToken(token string) bool {
	expiry, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(g.sign(expiry)), []byte(sig)) != 1 {
		return false
	}

	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return false
	}
	return g.now().Before(time.Unix(unix, 0))
}

// TTL exposes the configured token lifetime for cookie max-age.
func (g *GateKeeper) TTL() time.Duration {
	return g.ttl
}

func (g *GateKeeper) sign(expiry string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(expiry))
	return hex.EncodeToString(mac.Sum(nil))
}
