package errctx

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "callvault/pkg/domain-errors"
)

func TestCapture_CorrelationIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 1000 {
		e := Capture(errors.New("boom"), CategoryUnknown, "")
		require.NotEmpty(t, e.CorrelationID)
		require.False(t, seen[e.CorrelationID], "correlation ids must not repeat")
		seen[e.CorrelationID] = true
	}
}

func TestCapture_NilCauseStillTraceable(t *testing.T) {
	e := Capture(nil, CategoryUnknown, "")

	assert.NotEmpty(t, e.CorrelationID)
	assert.Equal(t, "internal error", e.Message)
	assert.Equal(t, dErrors.CodeInternal, e.Code)
}

func TestCapture_DerivesCodeFromCause(t *testing.T) {
	cause := dErrors.New(dErrors.CodeNotFound, "call not found")
	e := Capture(cause, CategoryBusinessLogic, "")

	assert.Equal(t, dErrors.CodeNotFound, e.Code)
	assert.Equal(t, "call not found", e.Message)
	assert.ErrorIs(t, e, cause, "the cause stays reachable through Unwrap")
}

func TestDefaultSeverities(t *testing.T) {
	tests := []struct {
		category Category
		want     Severity
	}{
		{CategoryValidation, SeverityInfo},
		{CategoryAuth, SeverityWarn},
		{CategoryBusinessLogic, SeverityWarn},
		{CategoryExternalAPI, SeverityError},
		{CategoryDatabase, SeverityCritical},
		{CategoryInfrastructure, SeverityCritical},
		{CategoryUnknown, SeverityError},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, Capture(nil, tt.category, "x").Severity)
		})
	}
}

func TestEnvelope_SanitizesInternalErrors(t *testing.T) {
	e := Database(errors.New(`pq: relation "artifacts" does not exist`), Differential{
		Expected: "artifacts table present",
		Actual:   "relation missing",
	})

	env := e.Envelope("/calls")

	assert.Equal(t, "internal error", env.Error, "store internals never reach clients")
	assert.Equal(t, string(dErrors.CodeInternal), env.Code)
	assert.Equal(t, e.CorrelationID, env.CorrelationID, "clients quote the same id operators grep for")
	assert.Equal(t, "/calls", env.Path)

	_, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	require.NoError(t, err)
}

func TestEnvelope_KeepsClientFacingMessages(t *testing.T) {
	e := Validation("phone_number is required", Differential{
		Expected: "E.164 phone number",
		Actual:   "empty",
	})

	env := e.Envelope("")
	assert.Equal(t, "phone_number is required", env.Error)
	assert.Equal(t, string(dErrors.CodeBadRequest), env.Code)
}

func TestLog_CarriesDifferentialAndCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	req := httptest.NewRequest(http.MethodPost, "/calls/123/translation", nil)
	e := Forbidden("caller may not translate", Differential{
		Expected: "org admin role",
		Actual:   "agent role",
	}, WithRequest(req), WithIdentity("user-1", "org-1"))

	e.Log(logger)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, e.CorrelationID, line["correlation_id"])
	assert.Equal(t, "org admin role", line["expected"])
	assert.Equal(t, "agent role", line["actual"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/calls/123/translation", line["path"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "org-1", line["org_id"])
}

func TestLog_ClientAndLogShareOneCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := ServiceDown(errors.New("dial tcp: connection refused"), Differential{
		Expected: "provider reachable",
		Actual:   "connection refused",
	})
	e.Log(logger)
	env := e.Envelope("/calls")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, env.CorrelationID, line["correlation_id"],
		"the id a client reports must locate the full server-side record")
}

func TestWithRequest_NeverCapturesAuthHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Content-Type", "application/json")

	e := Capture(nil, CategoryAuth, "bad credentials", WithRequest(req))

	assert.NotContains(t, e.Request.Headers, "Authorization")
	assert.Equal(t, "application/json", e.Request.Headers["Content-Type"])
}

func TestOptions(t *testing.T) {
	started := time.Now().Add(-50 * time.Millisecond)
	e := Capture(nil, CategoryExternalAPI, "slow provider",
		WithSeverity(SeverityWarn),
		WithCode(dErrors.CodeTimeout),
		WithTiming(started),
	)

	assert.Equal(t, SeverityWarn, e.Severity)
	assert.Equal(t, dErrors.CodeTimeout, e.Code)
	require.NotNil(t, e.Timing)
	assert.GreaterOrEqual(t, e.Timing.Duration, 50*time.Millisecond)
}
