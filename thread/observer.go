package thread

import (
	"context"
	"time"
)

// Observer receives lifecycle events from spawned threads and pools.
// Implementations must be safe for concurrent use.
type Observer interface {
	PoolCreated(ctx context.Context)
	PoolCancelled(ctx context.Context, cause error)
	PoolJoined(ctx context.Context, wait time.Duration)
	ThreadSpawned(name string)
	ThreadFinished(name string, dur time.Duration, err error, panicked bool)
}
