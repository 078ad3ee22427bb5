package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
	"callvault/pkg/requestcontext"
)

// Checker is the limiter surface the middleware depends on.
type Checker interface {
	Check(ctx context.Context, scope, identifier string) (*Result, error)
}

// Middleware applies a per-client limit to a route group. Limiter failures
// are fail-open: availability of the protected flow beats strict limiting.
type Middleware struct {
	checker Checker
	logger  *slog.Logger
}

// NewMiddleware constructs the rate limit middleware.
func NewMiddleware(checker Checker, logger *slog.Logger) *Middleware {
	return &Middleware{checker: checker, logger: logger}
}

// Limit enforces the limiter under the given scope, identifying clients by
// IP address.
func (m *Middleware) Limit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identifier := requestcontext.ClientIP(ctx)

			result, err := m.checker.Check(ctx, scope, identifier)
			if err != nil {
				m.logger.WarnContext(ctx, "rate limit check failed, allowing request",
					slog.String("scope", scope),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				captured := errctx.Capture(nil, errctx.CategoryBusinessLogic,
					"rate limit exceeded, retry after "+strconv.Itoa(result.RetryAfter)+"s",
					errctx.WithRequest(r),
					errctx.WithCode(dErrors.CodeRateLimited),
					errctx.WithSeverity(errctx.SeverityInfo),
				)
				captured.Log(m.logger)
				httputil.WriteJSON(w, http.StatusTooManyRequests, captured.Envelope(r.URL.Path))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
