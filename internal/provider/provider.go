// Package provider wraps the external telephony vendor. Every outbound call
// is timeout-boxed and traced; the vendor is an external collaborator and may
// be down at any time.
package provider

import (
	"context"

	"callvault/internal/artifact"
)

// DialRequest asks the vendor to place an outbound call.
type DialRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Record    bool   `json:"record"`
	CallbackU string `json:"callback_url,omitempty"`
}

// DialResult is the vendor's handle for a placed call.
type DialResult struct {
	CallSID string `json:"call_sid"`
}

// TranscribeRequest asks the vendor to transcribe a recording.
type TranscribeRequest struct {
	RecordingSID string `json:"recording_sid"`
	Language     string `json:"language"`
}

// TranslateRequest asks the vendor to translate transcript text.
type TranslateRequest struct {
	Text         string `json:"text"`
	FromLanguage string `json:"from_language"`
	ToLanguage   string `json:"to_language"`
}

// TranslateResult is the translated text plus the model that produced it.
type TranslateResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Provider is the single outbound abstraction over the telephony vendor.
type Provider interface {
	Dial(ctx context.Context, req DialRequest) (*DialResult, error)
	Transcribe(ctx context.Context, req TranscribeRequest) (*artifact.TranscriptMetadata, error)
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error)
}
