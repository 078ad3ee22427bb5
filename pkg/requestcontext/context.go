// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getter/setter functions live here so services can read
// values set by middleware without importing net/http. Middleware sets,
// services read, tests inject.
package requestcontext

import (
	"context"
	"time"

	id "callvault/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	orgIDKey       struct{}
	userIDKey      struct{}
	actorTypeKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	planKey        struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyOrgID       = orgIDKey{}
	ContextKeyUserID      = userIDKey{}
	ContextKeyActorType   = actorTypeKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyPlan        = planKey{}
)

// OrgID retrieves the authenticated organization scope from the context.
// Returns the zero value (nil UUID) if not set.
func OrgID(ctx context.Context) id.OrgID {
	if orgID, ok := ctx.Value(ContextKeyOrgID).(id.OrgID); ok {
		return orgID
	}
	return id.OrgID{}
}

// WithOrgID injects an organization scope into the context.
func WithOrgID(ctx context.Context, orgID id.OrgID) context.Context {
	return context.WithValue(ctx, ContextKeyOrgID, orgID)
}

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// ActorType retrieves the actor classification ("human", "system", "model")
// for audit attribution. Defaults to "human" for authenticated requests.
func ActorType(ctx context.Context) string {
	if actor, ok := ctx.Value(ContextKeyActorType).(string); ok {
		return actor
	}
	return ""
}

// WithActorType injects an actor classification into the context.
func WithActorType(ctx context.Context, actorType string) context.Context {
	return context.WithValue(ctx, ContextKeyActorType, actorType)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

// RequestID retrieves the correlation/request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Plan retrieves the organization's subscription plan from the context.
func Plan(ctx context.Context) string {
	if plan, ok := ctx.Value(ContextKeyPlan).(string); ok {
		return plan
	}
	return ""
}

// WithPlan injects a subscription plan into the context.
func WithPlan(ctx context.Context, plan string) context.Context {
	return context.WithValue(ctx, ContextKeyPlan, plan)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
