package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
	"callvault/pkg/requestcontext"
)

// Middleware resolves bearer tokens into request-scoped identity.
type Middleware struct {
	issuer *Issuer
	logger *slog.Logger
}

// NewMiddleware constructs the session resolver.
func NewMiddleware(issuer *Issuer, logger *slog.Logger) *Middleware {
	return &Middleware{issuer: issuer, logger: logger}
}

// Resolve attaches the session to the context when a valid bearer token is
// present and passes through otherwise. Routes that require identity use
// Require on top.
func (m *Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := m.issuer.Verify(token)
		if err != nil {
			httputil.WriteError(w, r, m.logger, errctx.Capture(err, errctx.CategoryAuth, "bearer token rejected",
				errctx.WithRequest(r),
			))
			return
		}

		ctx := requestcontext.WithOrgID(r.Context(), session.OrgID)
		if !session.UserID.IsNil() {
			ctx = requestcontext.WithUserID(ctx, session.UserID)
		}
		if session.Plan != "" {
			ctx = requestcontext.WithPlan(ctx, session.Plan)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects requests that did not resolve an organization scope.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.OrgID(r.Context()).IsNil() {
			httputil.WriteError(w, r, m.logger, errctx.Forbidden("authentication required",
				errctx.Differential{
					Expected: "request with a valid bearer token",
					Actual:   "no organization scope resolved",
				},
				errctx.WithRequest(r),
			))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
