// Package errctx turns failures into structured, categorized, correlated
// diagnostic records.
//
// Every failure produces exactly one Error: the server-side log line carries
// the full differential (expected vs actual state), while the client-facing
// envelope is stripped to message, code, correlation id, timestamp, and path.
// The builder never fails; a broken error path must not mask the original
// problem.
package errctx

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "callvault/pkg/domain-errors"
)

// Severity grades how loudly a failure should be reported.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Category classifies the failure's origin for routing and alerting.
type Category string

const (
	CategoryAuth           Category = "auth"
	CategoryDatabase       Category = "database"
	CategoryExternalAPI    Category = "external_api"
	CategoryValidation     Category = "validation"
	CategoryBusinessLogic  Category = "business_logic"
	CategoryInfrastructure Category = "infrastructure"
	CategoryUnknown        Category = "unknown"
)

// Differential records what the system expected versus what actually
// happened. It is the primary diagnostic payload and is mandatory for the
// forbidden/notFound/validation/database/externalService/serviceDown kinds.
type Differential struct {
	Expected string
	Actual   string
	Context  map[string]any
}

// Request is a snapshot of the failing request: method, path, and a small
// header subset. Bodies and auth headers are never captured.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
}

// Identity ties the failure to the caller when known.
type Identity struct {
	UserID string
	OrgID  string
}

// Timing captures optional latency context for slow-path failures.
type Timing struct {
	StartedAt time.Time
	Duration  time.Duration
}

// Error is one correlated diagnostic record. It satisfies error so it can
// flow through ordinary return paths.
type Error struct {
	CorrelationID string
	Severity      Severity
	Category      Category
	Code          dErrors.Code
	Message       string
	Request       Request
	Identity      Identity
	Differential  *Differential
	Timing        *Timing
	Timestamp     time.Time
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus resolves the error's code against the status catalog. A missing
// catalog entry defaults to 500.
func (e *Error) HTTPStatus() int {
	return dErrors.ToHTTPStatus(e.Code)
}

// NewCorrelationID returns a sortable timestamp-derived token plus a random
// suffix, globally unique with overwhelming probability.
func NewCorrelationID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// The builder never fails; degrade to a timestamp-only token.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + hex.EncodeToString(suffix)
}

// Option customizes a captured Error.
type Option func(*Error)

// WithRequest snapshots the failing HTTP request.
func WithRequest(r *http.Request) Option {
	return func(e *Error) {
		headers := map[string]string{}
		for _, name := range []string{"Content-Type", "User-Agent", "X-Forwarded-For", "Idempotency-Key"} {
			if v := r.Header.Get(name); v != "" {
				headers[name] = v
			}
		}
		e.Request = Request{Method: r.Method, Path: r.URL.Path, Headers: headers}
	}
}

// WithIdentity attaches the caller's identity.
func WithIdentity(userID, orgID string) Option {
	return func(e *Error) {
		e.Identity = Identity{UserID: userID, OrgID: orgID}
	}
}

// WithTiming attaches latency context.
func WithTiming(startedAt time.Time) Option {
	return func(e *Error) {
		e.Timing = &Timing{StartedAt: startedAt, Duration: time.Since(startedAt)}
	}
}

// WithSeverity overrides the default severity for the category.
func WithSeverity(severity Severity) Option {
	return func(e *Error) { e.Severity = severity }
}

// WithCode overrides the error code derived from the cause.
func WithCode(code dErrors.Code) Option {
	return func(e *Error) { e.Code = code }
}

// Capture wraps any error into a correlated Error. It never panics and never
// returns nil; a nil cause produces an unknown-category record so broken
// callers still get a traceable correlation id.
func Capture(cause error, category Category, message string, opts ...Option) *Error {
	e := &Error{
		CorrelationID: NewCorrelationID(),
		Category:      category,
		Severity:      defaultSeverity(category),
		Code:          dErrors.CodeInternal,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		cause:         cause,
	}
	if cause != nil {
		e.Code = dErrors.CodeOf(cause)
		if e.Message == "" {
			e.Message = dErrors.MessageOf(cause)
		}
	}
	if e.Message == "" {
		e.Message = "internal error"
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultSeverity(category Category) Severity {
	switch category {
	case CategoryValidation:
		return SeverityInfo
	case CategoryAuth, CategoryBusinessLogic:
		return SeverityWarn
	case CategoryExternalAPI:
		return SeverityError
	case CategoryDatabase, CategoryInfrastructure:
		return SeverityCritical
	default:
		return SeverityError
	}
}

// -----------------------------------------------------------------------------
// Kind constructors. These kinds require a differential: the caller must state
// what was expected and what was actually observed.
// -----------------------------------------------------------------------------

// Forbidden records an authorization failure.
func Forbidden(message string, diff Differential, opts ...Option) *Error {
	e := Capture(dErrors.New(dErrors.CodeForbidden, message), CategoryAuth, message, opts...)
	e.Differential = &diff
	return e
}

// NotFound records a missing-resource failure.
func NotFound(message string, diff Differential, opts ...Option) *Error {
	e := Capture(dErrors.New(dErrors.CodeNotFound, message), CategoryBusinessLogic, message, opts...)
	e.Severity = SeverityInfo
	e.Differential = &diff
	return e
}

// Validation records a client input failure.
func Validation(message string, diff Differential, opts ...Option) *Error {
	e := Capture(dErrors.New(dErrors.CodeBadRequest, message), CategoryValidation, message, opts...)
	e.Differential = &diff
	return e
}

// Database records a relational store failure.
func Database(cause error, diff Differential, opts ...Option) *Error {
	e := Capture(cause, CategoryDatabase, "database operation failed", opts...)
	e.Code = dErrors.CodeInternal
	e.Differential = &diff
	return e
}

// ExternalService records a retryable outbound provider failure.
func ExternalService(cause error, diff Differential, opts ...Option) *Error {
	e := Capture(cause, CategoryExternalAPI, "external service call failed", opts...)
	e.Code = dErrors.CodeUnavailable
	e.Differential = &diff
	return e
}

// ServiceDown records a hard outbound provider outage or timeout.
func ServiceDown(cause error, diff Differential, opts ...Option) *Error {
	e := Capture(cause, CategoryInfrastructure, "dependent service unavailable", opts...)
	e.Code = dErrors.CodeUnavailable
	e.Differential = &diff
	return e
}

// -----------------------------------------------------------------------------
// Sinks
// -----------------------------------------------------------------------------

// Log emits one structured line at a level matching severity. The full
// differential goes to the log sink only, never to clients.
func (e *Error) Log(logger *slog.Logger) {
	if logger == nil {
		return
	}
	attrs := []any{
		"correlation_id", e.CorrelationID,
		"category", string(e.Category),
		"severity", string(e.Severity),
		"code", string(e.Code),
		"method", e.Request.Method,
		"path", e.Request.Path,
	}
	if e.Identity.UserID != "" {
		attrs = append(attrs, "user_id", e.Identity.UserID)
	}
	if e.Identity.OrgID != "" {
		attrs = append(attrs, "org_id", e.Identity.OrgID)
	}
	if e.Differential != nil {
		attrs = append(attrs,
			"expected", e.Differential.Expected,
			"actual", e.Differential.Actual,
		)
		if len(e.Differential.Context) > 0 {
			attrs = append(attrs, "diff_context", e.Differential.Context)
		}
	}
	if e.Timing != nil {
		attrs = append(attrs, "duration_ms", e.Timing.Duration.Milliseconds())
	}
	if e.cause != nil {
		attrs = append(attrs, "error", e.cause.Error())
	}

	switch e.Severity {
	case SeverityDebug:
		logger.Debug(e.Message, attrs...)
	case SeverityInfo:
		logger.Info(e.Message, attrs...)
	case SeverityWarn:
		logger.Warn(e.Message, attrs...)
	default:
		logger.Error(e.Message, attrs...)
	}
}

// ClientEnvelope is the only error shape ever serialized to clients. Stack
// traces and differential context stay server-side.
type ClientEnvelope struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     string `json:"timestamp"`
	Path          string `json:"path"`
}

// Envelope builds the sanitized client response. Internal 5xx codes get a
// generic message so store internals never leak.
func (e *Error) Envelope(path string) ClientEnvelope {
	message := e.Message
	if e.HTTPStatus() >= http.StatusInternalServerError {
		message = "internal error"
	}
	if path == "" {
		path = e.Request.Path
	}
	return ClientEnvelope{
		Error:         message,
		Code:          string(e.Code),
		CorrelationID: e.CorrelationID,
		Timestamp:     e.Timestamp.Format(time.RFC3339Nano),
		Path:          path,
	}
}
