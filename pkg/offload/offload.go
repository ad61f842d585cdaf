// Package offload moves blocking reads off the consumer's goroutine.
//
// During restore, the tar unpacker alternates between CPU-bound decoding
// and disk-bound reads from the compressed shard. Reader runs those reads
// on a dedicated worker goroutine that fills fixed-capacity chunks and
// hands them to the consumer over a bounded channel, so read latency
// overlaps with unpack work instead of serializing behind it.
//
// Chunks are recycled through a second bounded channel. Each chunk is
// owned by exactly one side at a time: the worker while filling, the
// ready channel in transit, the consumer while draining, and the reuse
// channel on the way back. Recycling is best effort, not a hard
// guarantee: when the reuse channel is full the chunk is dropped and the
// worker allocates a fresh one. That trades extra allocation under
// sustained backpressure for a consumer that never stalls on recycling.
package offload

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shardpack/shardpack/internal/logger"
)

// Defaults for the tunables in Options.
const (
	DefaultChunkSize   = 128 * 1024
	DefaultQueueDepth  = 10
	DefaultReadTimeout = 5 * time.Second
)

// ErrReadTimeout is returned by Read when the worker is still alive but
// produced no chunk within the configured timeout. It distinguishes a
// stalled producer from a cleanly finished one (which yields io.EOF).
var ErrReadTimeout = errors.New("offload: timeout waiting for next chunk")

// chunk is the unit of ownership transfer between the worker and the
// consumer. buf[off:] is the unread remainder.
type chunk struct {
	buf []byte
	off int
}

// Reader is an io.Reader whose underlying reads run on a background
// worker goroutine. Close must be called on every exit path to stop the
// worker; after Close, Read returns io.EOF. A read error from the inner
// stream surfaces from Read once the queued chunks are drained.
type Reader struct {
	ready chan *chunk // filled chunks, closed by the worker on exit
	reuse chan *chunk // drained chunks going back, best effort

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// err holds the worker's terminal read error. Written by the worker
	// before ready closes; read by the consumer only after observing the
	// close, so no further synchronization is needed.
	err error

	cur       *chunk
	chunkSize int
	timeout   time.Duration
}

// NewReader starts a worker that reads from inner until exhaustion,
// error, or Close. The worker owns inner for reading; the caller must
// not touch inner until Close returns.
func NewReader(inner io.Reader, opts ...Option) *Reader {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Reader{
		ready:     make(chan *chunk, cfg.queueDepth),
		reuse:     make(chan *chunk, cfg.queueDepth),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		chunkSize: cfg.chunkSize,
		timeout:   cfg.timeout,
	}

	go r.work(inner)
	return r
}

// work is the offload worker loop: obtain a chunk, fill it from inner,
// push it to the consumer. Runs until end of stream, a read error, or
// cancellation.
func (r *Reader) work(inner io.Reader) {
	defer close(r.done)
	defer close(r.ready)

	for {
		if r.stopped() {
			return
		}

		c := r.obtainChunk()

		n, err := r.fill(inner, c.buf)
		if n > 0 {
			c.buf = c.buf[:n]
			c.off = 0

			select {
			case r.ready <- c:
			case <-r.stop:
				return
			}
		}
		if err != nil {
			logger.Error("offload worker read failed", "error", err)
			r.err = err
			return
		}
		if n == 0 {
			// Clean end of stream.
			return
		}
	}
}

// fill reads until buf is full, the stream ends, or cancellation is
// observed mid-fill. A short count with nil error means EOF or
// cancellation; the caller treats zero bytes as end of stream.
func (r *Reader) fill(inner io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if r.stopped() {
			break
		}
		m, err := inner.Read(buf[n:])
		n += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		if m == 0 {
			break
		}
	}
	return n, nil
}

// obtainChunk prefers a recycled chunk over allocating a fresh one.
func (r *Reader) obtainChunk() *chunk {
	select {
	case c := <-r.reuse:
		c.buf = c.buf[:cap(c.buf)]
		c.off = 0
		return c
	default:
		return &chunk{buf: make([]byte, r.chunkSize)}
	}
}

func (r *Reader) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Read drains the currently held chunk into p, fetching the next chunk
// from the worker when none is held. A closed ready channel means the
// worker is gone: reads report the worker's read error if it died on
// one, io.EOF on a clean finish or cancellation. A timeout with the
// worker still alive reports ErrReadTimeout.
func (r *Reader) Read(p []byte) (int, error) {
	if r.cur == nil {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()

		select {
		case c, ok := <-r.ready:
			if !ok {
				if r.err != nil {
					return 0, r.err
				}
				return 0, io.EOF
			}
			r.cur = c
		case <-timer.C:
			return 0, fmt.Errorf("%w (after %v)", ErrReadTimeout, r.timeout)
		}
	}

	c := r.cur
	n := copy(p, c.buf[c.off:])
	c.off += n

	if c.off == len(c.buf) {
		// Fully drained: release ownership back to the worker. If the
		// reuse queue is full, drop the chunk rather than block.
		r.cur = nil
		select {
		case r.reuse <- c:
		default:
		}
	}

	return n, nil
}

// Close cancels the worker and waits for it to exit, but never longer
// than the read timeout. A worker stuck in a blocking read past the
// timeout is abandoned with a warning so teardown latency stays bounded.
func (r *Reader) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		logger.Warn("timeout waiting for offload worker to terminate; goroutine may be leaked",
			"timeout", r.timeout)
	}
	return nil
}
