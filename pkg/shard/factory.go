package shard

import (
	"path/filepath"
	"sync"

	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/errcount"
)

// Factory hands each traversal worker its own Writer. The factory only
// computes naming and ownership; a Writer creates its output resources
// lazily on first append, so a worker that never receives a file costs
// nothing on disk.
//
// Shard indices are allocated when a Writer activates, not when it is
// built. Workers that receive no files consume no index, which keeps
// the on-disk numbering contiguous from zero regardless of how the
// traversal distributes files across workers.
type Factory struct {
	mu   sync.Mutex
	next uint64

	outDir string
	prefix string
	codec  codec.Codec
	errs   *errcount.Counter
}

// NewFactory creates a Factory writing shards into outDir. Archive
// entry names are made relative to prefix.
func NewFactory(outDir, prefix string, c codec.Codec, errs *errcount.Counter) *Factory {
	return &Factory{
		outDir: outDir,
		prefix: prefix,
		codec:  c,
		errs:   errs,
	}
}

// Build returns a Writer for one traversal worker.
func (f *Factory) Build() *Writer {
	return &Writer{
		factory: f,
		prefix:  f.prefix,
		codec:   f.codec,
		errs:    f.errs,
	}
}

// allocate assigns the next shard index and its output path. Each
// index is handed out exactly once.
func (f *Factory) allocate() (uint64, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	index := f.next
	f.next++
	return index, filepath.Join(f.outDir, FileName(index, f.codec.Ext()))
}
