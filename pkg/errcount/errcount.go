// Package errcount provides a shared failure counter for parallel pipelines.
//
// Compression and decompression run many independent workers, and a single
// failing file or shard must not abort its siblings. Instead of threading
// error values through every goroutine, each worker records failures on a
// shared Counter and the orchestrator snapshots it once at the end of the
// operation to decide overall success.
//
// The counter only ever goes up. It is safe for concurrent use from any
// number of goroutines without additional locking.
package errcount

import (
	"fmt"
	"sync/atomic"
)

// Counter accumulates failures across workers. The zero value is ready
// to use.
type Counter struct {
	n atomic.Uint64
}

// Increment records a single failure.
func (c *Counter) Increment() {
	c.n.Add(1)
}

// Add records n failures at once.
func (c *Counter) Add(n uint64) {
	c.n.Add(n)
}

// Count returns a snapshot of the number of recorded failures.
func (c *Counter) Count() uint64 {
	return c.n.Load()
}

// Err returns nil if no failures were recorded, or an error summarizing
// the count otherwise. Intended for the single end-of-operation check.
func (c *Counter) Err(op string) error {
	if n := c.Count(); n > 0 {
		return fmt.Errorf("%s: %d error(s) occurred, see log for details", op, n)
	}
	return nil
}
