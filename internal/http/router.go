// Package http assembles the router: middleware chain, public endpoints, and
// the authenticated API surface.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	artifacthandler "callvault/internal/artifact/handler"
	"callvault/internal/auth"
	authhandler "callvault/internal/auth/handler"
	callhandler "callvault/internal/call/handler"
	"callvault/internal/idempotency"
	"callvault/internal/platform/middleware"
	"callvault/internal/ratelimit"
	scoringhandler "callvault/internal/scoring/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth        *auth.Middleware
	RateLimit   *ratelimit.Middleware
	Idempotency *idempotency.Middleware

	AuthHandler     *authhandler.Handler
	CallHandler     *callhandler.Handler
	ArtifactHandler *artifacthandler.Handler
	ScoringHandler  *scoringhandler.Handler
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(d.Auth.Resolve)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The credentials flow is public but rate limited per client IP.
	r.Group(func(r chi.Router) {
		r.Use(d.RateLimit.Limit("auth"))
		d.AuthHandler.Register(r)
	})

	// Everything else requires an organization scope. Mutations opt into
	// replay protection with an Idempotency-Key header.
	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Require)
		r.Use(d.Idempotency.Handle)

		d.CallHandler.Register(r)
		d.ArtifactHandler.Register(r)
		d.ScoringHandler.Register(r)
	})

	return r
}
