package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"callvault/internal/artifact"
	"callvault/internal/platform/metrics"
	dErrors "callvault/pkg/domain-errors"
)

const tracerName = "callvault/provider"

// Client is the HTTP implementation of Provider. Each call is bounded by the
// configured timeout so a stuck vendor cannot pin request handlers.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient constructs the vendor client.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		metrics: m,
	}
}

func (c *Client) Dial(ctx context.Context, req DialRequest) (*DialResult, error) {
	var result DialResult
	if err := c.post(ctx, "provider.Dial", "/v1/calls", req, &result); err != nil {
		return nil, err
	}
	if result.CallSID == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, "provider returned no call sid")
	}
	return &result, nil
}

func (c *Client) Transcribe(ctx context.Context, req TranscribeRequest) (*artifact.TranscriptMetadata, error) {
	var result artifact.TranscriptMetadata
	if err := c.post(ctx, "provider.Transcribe", "/v1/transcriptions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error) {
	var result TranslateResult
	if err := c.post(ctx, "provider.Translate", "/v1/translations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, spanName, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("provider.path", path))
	defer span.End()

	start := time.Now()
	err := c.doPost(ctx, path, payload, out)
	c.metrics.ProviderLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) doPost(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Timeouts are retryable: the vendor may have acted, the
			// caller's idempotency key makes the retry safe.
			return dErrors.Wrap(err, dErrors.CodeTimeout, "provider call timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read provider response")
	}

	switch {
	case resp.StatusCode >= 500:
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("provider returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("provider rejected request with %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode provider response")
	}
	return nil
}
