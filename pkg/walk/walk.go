// Package walk drives parallel traversal of a directory tree.
//
// A single producer goroutine enumerates the tree and fans entries out
// to a fixed set of consumer goroutines over a bounded channel. Each
// consumer obtains its own Handler from a Builder before processing
// starts, so handlers never need internal locking: a handler sees a
// serial stream of entries on one goroutine. This is how the shard
// writer gets its one-shard-per-worker ownership model.
//
// A handler can stop its own worker without affecting siblings; the
// producer aborts only when every worker has stopped. Enumeration
// errors are delivered as entries with Err set so the handler decides
// whether they are fatal for its worker.
package walk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
)

// Entry is one filesystem object delivered to a handler. When Err is
// non-nil, Path may still identify the object the error relates to and
// DirEnt is nil.
type Entry struct {
	Path   string
	DirEnt fs.DirEntry
	Err    error
}

// Status is a handler's verdict after one entry.
type Status int

const (
	// Continue keeps the worker consuming entries.
	Continue Status = iota
	// Stop ends this worker's traversal; sibling workers are unaffected.
	Stop
)

// Handler consumes entries on a single worker goroutine.
type Handler interface {
	// Handle processes one entry.
	Handle(e Entry) Status

	// Close is invoked exactly once when the worker exits, on every
	// exit path.
	Close()
}

// Builder produces one Handler per worker goroutine.
type Builder func() Handler

// entryQueueDepth bounds how far enumeration may run ahead of the
// consumers.
const entryQueueDepth = 256

// Walk traverses root with the given number of worker goroutines, each
// driving its own Handler. It returns an error only when the traversal
// cannot start at all; per-entry errors are the handlers' business.
func Walk(root string, workers int, build Builder) error {
	if workers < 1 {
		return fmt.Errorf("walk: workers must be >= 1, got %d", workers)
	}

	entries := make(chan Entry, entryQueueDepth)

	// Closed when every worker has exited, releasing a producer that is
	// blocked on a full entries channel with nobody left to drain it.
	workersGone := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := build()
			defer h.Close()
			for e := range entries {
				if h.Handle(e) == Stop {
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(workersGone)
	}()

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case entries <- Entry{Path: path, DirEnt: d, Err: err}:
			return nil
		case <-workersGone:
			return filepath.SkipAll
		}
	})

	close(entries)
	<-workersGone

	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return nil
}
