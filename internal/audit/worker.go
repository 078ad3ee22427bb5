package audit

import "context"

// Worker consumes ledger entries from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store Store
	inbox <-chan Entry
}

// NewWorker constructs a worker draining inbox into store.
func NewWorker(store Store, inbox <-chan Entry) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run blocks until ctx is done or a store append fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				return err
			}
		}
	}
}
