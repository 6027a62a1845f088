package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/app"
	iauth "github.com/chalkboardhq/chalkboard/internal/auth"
	"github.com/chalkboardhq/chalkboard/internal/directory"
	"github.com/chalkboardhq/chalkboard/internal/middleware"
	"github.com/chalkboardhq/chalkboard/internal/webhook"
)

// Dependencies carries the wired services the router mounts handlers on.
type Dependencies struct {
	DB        *gorm.DB
	Config    *app.Config
	Directory *directory.Service
	Sessions  iauth.SessionVerifier
	Webhooks  webhook.Verifier
	Gate      *iauth.GateKeeper
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("directory service must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session verifier must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if rl := deps.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(deps.RateStore, rl.MaxRequests, rl.Window))
	}

	registerHealthRoutes(r)

	// Webhook ingestion authenticates by signature, not session, and must
	// stay outside the password gate.
	if err := registerWebhookRoutes(r, deps.DB, deps.Webhooks); err != nil {
		return nil, err
	}

	registerGateRoutes(r, deps.Gate, deps.Config.Server.SecureCookies)

	// Everything below the gate.
	gated := r.Group("/api")
	gated.Use(middleware.Gate(deps.Gate))

	// Authenticated routes: lookups expose upstream directory data and are
	// session-only, like the rest of the application surface.
	authed := gated.Group("")
	authed.Use(middleware.Auth(deps.Sessions))

	if err := registerStateRoutes(authed, deps.DB); err != nil {
		return nil, err
	}
	if err := registerGeoRoutes(authed, deps.Directory); err != nil {
		return nil, err
	}
	if err := registerOnboardingRoutes(authed, deps.DB); err != nil {
		return nil, err
	}

	// Metrics endpoint
	if mon := deps.Config.Monitoring.Prometheus; mon.Enabled {
		endpoint := mon.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
