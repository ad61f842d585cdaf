// Package shard writes and tracks the independently compressed archive
// shards produced by a compress run.
//
// Each traversal worker owns exactly one Writer, so a Writer is never
// used from two goroutines and needs no locking. The Writer is a small
// state machine: it starts uninitialized, becomes active when the first
// file arrives (only then is the output file created, so workers that
// never receive a file leave no empty shard behind), and ends finalized.
// Finalization may fail in any of its steps, but those failures are
// logged and counted rather than propagated: cleanup must never take
// down the process.
package shard

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shardpack/shardpack/internal/logger"
	"github.com/shardpack/shardpack/pkg/bufpool"
	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/countio"
	"github.com/shardpack/shardpack/pkg/errcount"
	"github.com/shardpack/shardpack/pkg/metrics"
	"github.com/shardpack/shardpack/pkg/walk"
)

// writeBufferSize amortizes syscall overhead under the encoder.
const writeBufferSize = 128 * 1024

// chain is the open output stack of an active shard, torn down in
// reverse order by Finalize.
type chain struct {
	file  *os.File
	wrote *countio.Writer
	bufw  *bufio.Writer
	enc   io.WriteCloser
	tw    *tar.Writer
}

// Writer owns one output shard. It implements walk.Handler so a
// traversal worker can drive it directly.
type Writer struct {
	factory *Factory
	prefix  string
	codec   codec.Codec
	errs    *errcount.Counter

	// index and outPath are assigned by the factory at activation.
	index   uint64
	outPath string

	// chain == nil, !finalized: uninitialized (no file on disk).
	// chain != nil: active.
	// finalized: terminal; all further calls are no-ops.
	chain     *chain
	finalized bool

	// broken marks a shard whose stream is inconsistent after a setup
	// or append failure. Entries are silently discarded from then on;
	// the failure was already counted once when it happened.
	broken bool
}

// Index returns the shard's index. Only meaningful once the shard is
// active.
func (w *Writer) Index() uint64 { return w.index }

// OutPath returns the shard's output path, or "" before activation.
func (w *Writer) OutPath() string { return w.outPath }

// Handle appends one traversal entry to the shard. Non-regular entries
// are skipped. Any failure is logged, recorded on the error counter,
// and stops this worker's traversal; sibling shards are unaffected.
func (w *Writer) Handle(e walk.Entry) walk.Status {
	if w.broken || w.finalized {
		return walk.Stop
	}

	if e.Err != nil {
		logger.Warn("traversal error", "path", e.Path, "error", e.Err)
		w.fail()
		return walk.Continue
	}
	if e.DirEnt == nil || !e.DirEnt.Type().IsRegular() {
		return walk.Continue
	}

	rel, err := filepath.Rel(w.prefix, e.Path)
	if err != nil {
		logger.Error("path not relative to input prefix",
			"path", e.Path, "prefix", w.prefix, "error", err)
		w.fail()
		w.broken = true
		return walk.Stop
	}

	if w.chain == nil {
		if err := w.activate(); err != nil {
			logger.Error("failed to create shard",
				"shard", w.index, "out_path", w.outPath, "error", err)
			w.fail()
			w.broken = true
			return walk.Stop
		}
	}

	if err := w.append(e.Path, rel, e.DirEnt); err != nil {
		logger.Error("failed to append file to shard",
			"shard", w.index, "out_path", w.outPath, "path", e.Path, "error", err)
		w.fail()
		w.broken = true
		return walk.Stop
	}

	return walk.Continue
}

// Close implements walk.Handler; the traversal engine invokes it on
// every worker exit path.
func (w *Writer) Close() {
	w.Finalize()
}

// activate performs the lazy Uninitialized→Active transition: create
// the output file (exclusive, never overwriting an existing shard) and
// build the buffered-writer → encoder → container stack on top of it.
func (w *Writer) activate() error {
	w.index, w.outPath = w.factory.allocate()

	f, err := os.OpenFile(w.outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create shard file: %w", err)
	}

	wrote := countio.NewWriter(f, nil)
	bufw := bufio.NewWriterSize(wrote, writeBufferSize)

	enc, err := w.codec.NewEncoder(bufw)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("create %s encoder: %w", w.codec.Name(), err)
	}

	w.chain = &chain{
		file:  f,
		wrote: wrote,
		bufw:  bufw,
		enc:   enc,
		tw:    tar.NewWriter(enc),
	}

	metrics.IncShardsOpened()
	logger.Debug("shard created", "shard", w.index, "out_path", w.outPath)
	return nil
}

// append streams one file into the container under its archive-relative
// name.
func (w *Writer) append(path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header: %w", err)
	}
	hdr.Name = filepath.ToSlash(rel)

	if err := w.chain.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	buf := bufpool.Get()
	defer bufpool.Put(buf)

	n, err := io.CopyBuffer(w.chain.tw, f, *buf)
	if err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}

	metrics.AddFilesArchived(1)
	metrics.AddBytesArchived(uint64(n))
	return nil
}

// fail records one failure on the shared counter.
func (w *Writer) fail() {
	w.errs.Increment()
	metrics.IncErrors()
}

// Finalize transitions the shard to its terminal state: close the
// container (trailer), finish the encoder (flush compressed output),
// flush the write buffer, fsync and close the file. It is idempotent,
// and a shard that never became active produces no file at all.
//
// Failures in any step are logged with the shard's output path and
// folded into the error counter; Finalize never panics and never
// returns an error, because it runs on cleanup paths that must not
// fail.
func (w *Writer) Finalize() {
	if w.finalized {
		return
	}
	w.finalized = true

	if w.chain == nil {
		logger.Debug("shard never activated, no output file")
		return
	}

	ch := w.chain
	w.chain = nil

	failed := false
	steps := []struct {
		name string
		fn   func() error
	}{
		{"close container", ch.tw.Close},
		{"finish encoder", ch.enc.Close},
		{"flush write buffer", ch.bufw.Flush},
		{"sync shard file", ch.file.Sync},
		{"close shard file", ch.file.Close},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			logger.Error("error while finalizing shard",
				"shard", w.index, "out_path", w.outPath, "step", step.name, "error", err)
			failed = true
		}
	}

	if failed {
		w.fail()
		return
	}

	metrics.IncShardsFinalized()
	logger.Debug("shard finalized",
		"shard", w.index, "out_path", w.outPath, "compressed_bytes", ch.wrote.Count())
}
