// Package countio provides byte-counting wrappers around readers and
// writers.
//
// The wrappers forward every call to the inner stream and accumulate the
// transferred byte count in an atomic counter that can be read from other
// goroutines without blocking, e.g. by a periodic progress logger or a
// metrics exporter. Errors pass through unchanged; the wrappers have no
// failure modes of their own.
package countio

import (
	"io"
	"sync/atomic"
)

// Reader counts the bytes read through it.
type Reader struct {
	inner io.Reader
	bytes *atomic.Uint64
}

// NewReader wraps r. If counter is nil the Reader owns a fresh one;
// passing a shared counter lets several streams accumulate into the
// same total.
func NewReader(r io.Reader, counter *atomic.Uint64) *Reader {
	if counter == nil {
		counter = new(atomic.Uint64)
	}
	return &Reader{inner: r, bytes: counter}
}

// Read forwards to the inner reader and counts the returned bytes.
// A read that returns both data and an error still counts the data,
// matching io.Reader semantics.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.bytes.Add(uint64(n))
	}
	return n, err
}

// Count returns the total number of bytes read so far.
func (r *Reader) Count() uint64 {
	return r.bytes.Load()
}

// Counter returns the underlying counter for sharing with other
// goroutines.
func (r *Reader) Counter() *atomic.Uint64 {
	return r.bytes
}

// Writer counts the bytes written through it.
type Writer struct {
	inner io.Writer
	bytes *atomic.Uint64
}

// NewWriter wraps w. If counter is nil the Writer owns a fresh one.
func NewWriter(w io.Writer, counter *atomic.Uint64) *Writer {
	if counter == nil {
		counter = new(atomic.Uint64)
	}
	return &Writer{inner: w, bytes: counter}
}

// Write forwards to the inner writer and counts the accepted bytes.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	if n > 0 {
		w.bytes.Add(uint64(n))
	}
	return n, err
}

// Count returns the total number of bytes written so far.
func (w *Writer) Count() uint64 {
	return w.bytes.Load()
}

// Counter returns the underlying counter for sharing with other
// goroutines.
func (w *Writer) Counter() *atomic.Uint64 {
	return w.bytes
}
