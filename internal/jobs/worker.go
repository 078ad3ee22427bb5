package jobs

import (
	"context"
	"log/slog"

	"callvault/internal/artifact"
	"callvault/internal/audit"
	"callvault/internal/platform/metrics"
	"callvault/internal/provider"
	"callvault/pkg/requestcontext"
)

// Worker drains the queue, performs the provider call, and finalizes the
// queued artifact. Failures mark the artifact failed rather than retrying;
// the client re-initiates with a fresh idempotency key.
type Worker struct {
	queue    <-chan Job
	provider provider.Provider
	recorder *artifact.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewWorker constructs a job worker.
func NewWorker(queue <-chan Job, p provider.Provider, recorder *artifact.Recorder, m *metrics.Metrics, logger *slog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		provider: p,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// Run blocks until ctx is done, processing jobs one at a time.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-w.queue:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	// Jobs execute outside any request, so the scope the ledger and stores
	// need is rebuilt from the job itself.
	jobCtx := requestcontext.WithOrgID(ctx, job.OrgID)
	jobCtx = requestcontext.WithActorType(jobCtx, string(audit.ActorSystem))

	var err error
	switch job.Kind {
	case KindTranscription:
		err = w.transcribe(jobCtx, job)
	case KindTranslation:
		err = w.translate(jobCtx, job)
	default:
		w.logger.ErrorContext(jobCtx, "unknown job kind", slog.String("kind", string(job.Kind)))
		w.metrics.JobsProcessed.WithLabelValues(string(job.Kind), "dropped").Inc()
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		w.logger.ErrorContext(jobCtx, "job failed",
			slog.String("kind", string(job.Kind)),
			slog.String("artifact_id", job.ArtifactID.String()),
			slog.String("error", err.Error()),
		)
		if failErr := w.recorder.Complete(jobCtx, job.ArtifactID, artifact.StatusFailed, nil, executionAction(job.Kind)); failErr != nil {
			w.logger.ErrorContext(jobCtx, "mark artifact failed",
				slog.String("artifact_id", job.ArtifactID.String()),
				slog.String("error", failErr.Error()),
			)
		}
	}
	w.metrics.JobsProcessed.WithLabelValues(string(job.Kind), outcome).Inc()
}

func (w *Worker) transcribe(ctx context.Context, job Job) error {
	result, err := w.provider.Transcribe(ctx, *job.Transcribe)
	if err != nil {
		return err
	}
	return w.recorder.Complete(ctx, job.ArtifactID, artifact.StatusComplete, *result, audit.ActionExecTranscription)
}

func (w *Worker) translate(ctx context.Context, job Job) error {
	result, err := w.provider.Translate(ctx, *job.Translate)
	if err != nil {
		return err
	}
	metadata := artifact.TranslationMetadata{
		FromLanguage: job.Translate.FromLanguage,
		ToLanguage:   job.Translate.ToLanguage,
		Text:         result.Text,
		Model:        result.Model,
	}
	return w.recorder.Complete(ctx, job.ArtifactID, artifact.StatusComplete, metadata, audit.ActionExecTranslation)
}

func executionAction(kind Kind) string {
	switch kind {
	case KindTranscription:
		return audit.ActionExecTranscription
	case KindTranslation:
		return audit.ActionExecTranslation
	default:
		return audit.ActionUpdate
	}
}
