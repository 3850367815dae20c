package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client supplied idempotency keys so that a
// retried request (for example a double-submitted checkout) is not applied twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false if the key is already claimed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the result reference for a claimed key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	// Result returns the stored result reference, or "" while still in flight
	Result(ctx context.Context, key string) (string, error)
	// Release drops a claim so the request can be retried after a failure
	Release(ctx context.Context, key string) error
}
