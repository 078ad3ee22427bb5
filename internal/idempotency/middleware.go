package idempotency

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/errctx"
	"callvault/pkg/platform/httputil"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// Middleware wraps mutation handlers with cache-backed replay protection.
type Middleware struct {
	store    Store
	logger   *slog.Logger
	ttl      time.Duration
	claimTTL time.Duration
}

// Option configures the middleware.
type Option func(*Middleware)

// WithTTL overrides the default 24h response retention.
func WithTTL(ttl time.Duration) Option {
	return func(m *Middleware) { m.ttl = ttl }
}

// WithClaimTTL overrides how long an in-flight claim may be held before a
// crashed handler's key becomes executable again.
func WithClaimTTL(ttl time.Duration) Option {
	return func(m *Middleware) { m.claimTTL = ttl }
}

// New constructs the idempotency middleware.
func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		logger:   logger,
		ttl:      24 * time.Hour,
		claimTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle intercepts mutation requests carrying an Idempotency-Key header.
// Protection is opt-in: requests without the header pass straight through.
//
// Cache-backend failures fail open: the handler executes uncached. That
// trades the idempotency guarantee for availability, deliberately.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > MaxKeyLength {
			httputil.WriteError(w, r, m.logger, errctx.Validation(
				"idempotency key too long", errctx.Differential{
					Expected: "Idempotency-Key of at most 256 characters",
					Actual:   "key of " + strconv.Itoa(len(key)) + " characters",
				}, errctx.WithRequest(r)))
			return
		}

		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		scope := GlobalScope
		if orgID := requestcontext.OrgID(ctx); !orgID.IsNil() {
			scope = orgID.String()
		}

		entry, err := m.store.Get(ctx, scope, key)
		switch {
		case err == nil:
			m.replay(w, entry)
			return
		case errors.Is(err, ErrInFlight):
			m.conflict(w, r)
			return
		case errors.Is(err, sentinel.ErrNotFound):
			// First sighting of this key; claim it below.
		default:
			m.logger.WarnContext(ctx, "idempotency cache unavailable, proceeding uncached",
				"error", err, "request_id", requestID)
			next.ServeHTTP(w, r)
			return
		}

		acquired, err := m.store.Claim(ctx, scope, key, m.claimTTL)
		if err != nil {
			m.logger.WarnContext(ctx, "idempotency claim failed, proceeding uncached",
				"error", err, "request_id", requestID)
			next.ServeHTTP(w, r)
			return
		}
		if !acquired {
			// Lost the race: the winner either finished (replay) or is
			// still executing (conflict).
			if entry, err := m.store.Get(ctx, scope, key); err == nil {
				m.replay(w, entry)
				return
			}
			m.conflict(w, r)
			return
		}

		rec := newRecorder(w)
		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusInternalServerError {
			// 5xx responses stay retryable; free the claim.
			if err := m.store.Release(ctx, scope, key); err != nil {
				m.logger.WarnContext(ctx, "idempotency claim release failed",
					"error", err, "request_id", requestID)
			}
			return
		}

		entryToCache := Entry{
			Status:    rec.status,
			Body:      rec.body.Bytes(),
			Headers:   map[string]string{"Content-Type": rec.Header().Get("Content-Type")},
			CreatedAt: time.Now().UTC(),
		}
		if err := m.store.Put(ctx, scope, key, entryToCache, m.ttl); err != nil {
			// Cache write failures are logged but never fail the request.
			m.logger.WarnContext(ctx, "idempotency cache write failed",
				"error", err, "request_id", requestID)
		}
	})
}

func (m *Middleware) replay(w http.ResponseWriter, entry *Entry) {
	for name, value := range entry.Headers {
		if value != "" {
			w.Header().Set(name, value)
		}
	}
	w.Header().Set(ReplayHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

func (m *Middleware) conflict(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	captured := errctx.Capture(nil, errctx.CategoryBusinessLogic,
		"a request with this idempotency key is already executing",
		errctx.WithRequest(r))
	captured.Code = dErrors.CodeConflict
	captured.Severity = errctx.SeverityInfo
	captured.Log(m.logger)
	httputil.WriteJSON(w, http.StatusConflict, captured.Envelope(r.URL.Path))
}

// recorder buffers the downstream response so it can be both sent to the
// client and cached.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
