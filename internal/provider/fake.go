package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"callvault/internal/artifact"
)

// Fake is a deterministic in-process Provider for tests. It counts calls so
// tests can assert at-most-once execution under idempotent replay.
type Fake struct {
	mu          sync.Mutex
	DialCalls   atomic.Int64
	TransCalls  atomic.Int64
	XlateCalls  atomic.Int64
	FailWith    error
	Transcripts map[string]string
}

// NewFake constructs a fake provider.
func NewFake() *Fake {
	return &Fake{Transcripts: make(map[string]string)}
}

func (f *Fake) Dial(_ context.Context, req DialRequest) (*DialResult, error) {
	n := f.DialCalls.Add(1)
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	return &DialResult{CallSID: fmt.Sprintf("CA-fake-%d-%s", n, req.To)}, nil
}

func (f *Fake) Transcribe(_ context.Context, req TranscribeRequest) (*artifact.TranscriptMetadata, error) {
	f.TransCalls.Add(1)
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.Lock()
	text := f.Transcripts[req.RecordingSID]
	f.mu.Unlock()
	if text == "" {
		text = "fake transcript"
	}
	return &artifact.TranscriptMetadata{
		Language: req.Language,
		Text:     text,
		Model:    "fake-stt-1",
	}, nil
}

func (f *Fake) Translate(_ context.Context, req TranslateRequest) (*TranslateResult, error) {
	f.XlateCalls.Add(1)
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	return &TranslateResult{
		Text:  fmt.Sprintf("[%s] %s", req.ToLanguage, req.Text),
		Model: "fake-mt-1",
	}, nil
}
