// Package jobs is the asynchronous execution path for provider work. An
// initiating request enqueues a job and returns a queued artifact; the worker
// performs the provider call out-of-band and finalizes the artifact.
package jobs

import (
	"context"

	"callvault/internal/provider"
	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
)

// Kind classifies a background job.
type Kind string

const (
	KindTranscription Kind = "transcription"
	KindTranslation   Kind = "translation"
)

// Job is one unit of asynchronous provider work. It carries its own
// organization scope because it executes outside any request context.
type Job struct {
	Kind       Kind
	OrgID      id.OrgID
	CallID     id.CallID
	ArtifactID id.ArtifactID
	Transcribe *provider.TranscribeRequest
	Translate  *provider.TranslateRequest
}

// Queue accepts jobs for background execution.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// ChannelQueue is the in-process Queue implementation backed by a buffered
// channel drained by Worker.
type ChannelQueue struct {
	ch chan Job
}

// NewChannelQueue constructs a queue with the given buffer size.
func NewChannelQueue(buffer int) *ChannelQueue {
	return &ChannelQueue{ch: make(chan Job, buffer)}
}

// Enqueue submits a job without blocking. A full queue rejects the job so the
// initiating request can surface backpressure instead of hanging.
func (q *ChannelQueue) Enqueue(_ context.Context, job Job) error {
	select {
	case q.ch <- job:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "job queue is full")
	}
}

// Jobs exposes the drain side for the worker.
func (q *ChannelQueue) Jobs() <-chan Job {
	return q.ch
}
