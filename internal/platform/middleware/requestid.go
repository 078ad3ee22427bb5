package middleware

import (
	"net/http"

	"callvault/pkg/errctx"
	"callvault/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns every request a sortable correlation id and echoes it in
// the response so clients can quote it back. An inbound header is trusted to
// allow gateway-assigned ids to flow through.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = errctx.NewCorrelationID()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
