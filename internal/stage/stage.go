// Package stage implements the queue-gated stage pattern shared by the
// discovery, creation, and listing stages: a backpressure precondition,
// a bounded per-item loop, and failure isolation between items.
package stage

import (
	"context"
	"errors"
	"time"
)

// ErrFiltered marks an item the stage intentionally discarded: it is
// neither produced nor failed, and nothing about it is persisted.
var ErrFiltered = errors.New("item filtered")

// Gate is the backpressure precondition for a stage run. A stage whose
// queue is already at or above MaxQueue skips the run entirely, with zero
// side effects. MaxQueue <= 0 disables the gate.
type Gate struct {
	QueueSize int
	MaxQueue  int
}

// Closed reports whether the gate blocks this run.
func (g Gate) Closed() bool {
	return g.MaxQueue > 0 && g.QueueSize >= g.MaxQueue
}

// Result aggregates one stage run.
type Result struct {
	Attempted int  `json:"attempted"`
	Produced  int  `json:"produced"`
	Failed    int  `json:"failed"`
	Filtered  int  `json:"filtered"`
	Skipped   bool `json:"skipped"`
}

// WithTimeout bounds a single external call (generator, repository, or
// merchant) so a hung collaborator cannot stall the stage loop. A
// non-positive timeout returns the context unchanged.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// ItemFunc processes the item at index i. A returned error means that item
// failed; the caller is expected to have already marked the owning entity
// terminal before returning.
type ItemFunc func(ctx context.Context, i int) error

// Run executes a gated stage loop over items candidates. When the gate is
// closed it returns immediately with Skipped=true and no items attempted.
// Item failures never abort the loop; only context cancellation does.
func Run(ctx context.Context, gate Gate, items int, fn ItemFunc) Result {
	if gate.Closed() {
		return Result{Skipped: true}
	}

	var result Result
	for i := 0; i < items; i++ {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		result.Attempted++
		err := fn(ctx, i)
		switch {
		case errors.Is(err, ErrFiltered):
			result.Filtered++
		case err != nil:
			result.Failed++
		default:
			result.Produced++
		}
	}
	return result
}
