// Package idempotency prevents duplicate side effects when clients retry
// mutations. Responses are cached per (organization scope, client key) with a
// TTL; an atomic in-flight claim guarantees at most one concurrent execution
// per key.
package idempotency

import (
	"errors"
	"time"
)

// MaxKeyLength bounds the client-supplied Idempotency-Key header.
const MaxKeyLength = 256

// GlobalScope is the cache scope for unauthenticated routes.
const GlobalScope = "global"

// ReplayHeader marks responses served from the cache so clients and tests can
// distinguish cache hits from fresh execution.
const ReplayHeader = "Idempotent-Replayed"

// ErrInFlight reports that another request holds the execution claim for the
// same key. The caller should retry after the first execution completes.
var ErrInFlight = errors.New("idempotent execution in flight")

// Entry is one cached mutation response. Once written it is immutable until
// expiry: a retry within the TTL observes exactly the value the first
// execution produced.
type Entry struct {
	Status    int               `json:"status"`
	Body      []byte            `json:"body"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
