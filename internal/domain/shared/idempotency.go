package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed webhook delivery IDs so that a
// redelivered notification is acknowledged without being applied twice.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a delivery has already been processed
	IsProcessed(ctx context.Context, deliveryID string) (bool, error)

	// Forget removes a delivery mark so the platform's redelivery is
	// accepted again. Used when processing failed after the mark was set.
	Forget(ctx context.Context, deliveryID string) error

	// Close closes the store and releases resources
	Close() error
}
