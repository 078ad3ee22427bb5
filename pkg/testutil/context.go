package testutil

import (
	"context"
	"net/http"

	id "callvault/pkg/domain"
	"callvault/pkg/requestcontext"
)

// WithOrg adds an organization scope to the request context, simulating what
// the auth middleware does for authenticated requests. Invalid IDs are
// silently ignored.
func WithOrg(req *http.Request, orgID string) *http.Request {
	if parsed, err := id.ParseOrgID(orgID); err == nil {
		return req.WithContext(requestcontext.WithOrgID(req.Context(), parsed))
	}
	return req
}

// WithAuth adds both organization scope and user ID to the request context.
// Invalid IDs are silently ignored.
func WithAuth(req *http.Request, orgID, userID string) *http.Request {
	ctx := req.Context()
	if orgID != "" {
		if parsed, err := id.ParseOrgID(orgID); err == nil {
			ctx = requestcontext.WithOrgID(ctx, parsed)
		}
	}
	if userID != "" {
		if parsed, err := id.ParseUserID(userID); err == nil {
			ctx = requestcontext.WithUserID(ctx, parsed)
		}
	}
	return req.WithContext(ctx)
}

// AuthedContext builds a service-level context carrying an organization scope
// and user identity.
func AuthedContext(orgID id.OrgID, userID id.UserID) context.Context {
	ctx := requestcontext.WithOrgID(context.Background(), orgID)
	if !userID.IsNil() {
		ctx = requestcontext.WithUserID(ctx, userID)
	}
	return ctx
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
