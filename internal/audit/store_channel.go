package audit

import "context"

// ChannelStore defers appends to a Worker draining Inbox while serving reads
// from the backing store. Background producers that run outside a request
// transaction use it so ledger writes never block job progress.
type ChannelStore struct {
	Store
	inbox chan Entry
}

// NewChannelStore wraps backing with a buffered append channel.
func NewChannelStore(backing Store, buffer int) *ChannelStore {
	return &ChannelStore{Store: backing, inbox: make(chan Entry, buffer)}
}

// Append hands the entry to the drain worker. It blocks only when the inbox
// is full and gives up on context cancellation.
func (s *ChannelStore) Append(ctx context.Context, entry Entry) error {
	select {
	case s.inbox <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbox is the channel a Worker drains into the backing store.
func (s *ChannelStore) Inbox() <-chan Entry {
	return s.inbox
}
