package offload

import "time"

type options struct {
	chunkSize  int
	queueDepth int
	timeout    time.Duration
}

func defaultOptions() options {
	return options{
		chunkSize:  DefaultChunkSize,
		queueDepth: DefaultQueueDepth,
		timeout:    DefaultReadTimeout,
	}
}

// Option tunes a Reader.
type Option func(*options)

// WithChunkSize sets the capacity of each pooled chunk.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithQueueDepth bounds both the ready and reuse channels. Depth limits
// how far the worker may read ahead of the consumer.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}

// WithReadTimeout bounds how long Read waits for the next chunk and how
// long Close waits for the worker to exit.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
