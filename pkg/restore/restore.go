package restore

import (
	"archive/tar"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shardpack/shardpack/internal/logger"
	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/countio"
	"github.com/shardpack/shardpack/pkg/metrics"
	"github.com/shardpack/shardpack/pkg/offload"
)

// Options configures a restore run.
type Options struct {
	// InDir is the directory holding the shard archives.
	InDir string

	// OutDir is the directory the file tree is restored into. Created
	// if missing. Shards restore into it concurrently, which is safe
	// because shards from one compress run never overlap.
	OutDir string

	// Threads is the number of shards restored concurrently.
	Threads int

	// ChunkSize, QueueDepth and ReadTimeout tune the offloaded reader
	// placed between decompression and extraction. Zero values select
	// the offload package defaults.
	ChunkSize   int
	QueueDepth  int
	ReadTimeout time.Duration
}

// Restore restores every shard archive found in opts.InDir into
// opts.OutDir using a pool of opts.Threads workers.
//
// All shards are attempted even when some fail; the returned error
// combines the per-shard failures, or is nil when every shard restored
// cleanly. An input directory with no shards is not an error.
func Restore(opts Options) error {
	if opts.Threads < 1 {
		return fmt.Errorf("thread count must be at least 1, got %d", opts.Threads)
	}

	shards, err := Shards(opts.InDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger.Info("restoring shard archives",
		"in_dir", opts.InDir, "out_dir", opts.OutDir,
		"archives", len(shards), "threads", opts.Threads)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(opts.Threads)

	for _, shard := range shards {
		g.Go(func() error {
			if err := restoreOne(shard, opts); err != nil {
				logger.Error("failed to restore shard archive",
					"archive", shard, "error", err)
				metrics.IncErrors()
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(shard), err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

// restoreOne runs the full pipeline for a single shard: open, count
// compressed bytes, decode, count uncompressed bytes, offload reads to
// a dedicated goroutine, extract the tar stream.
func restoreOne(shard string, opts Options) error {
	c, ok := codec.ForFile(shard)
	if !ok {
		return fmt.Errorf("no codec for %q", filepath.Base(shard))
	}

	f, err := os.Open(shard)
	if err != nil {
		return fmt.Errorf("open shard: %w", err)
	}
	defer f.Close()

	compressed := countio.NewReader(f, nil)

	dec, err := c.NewDecoder(compressed)
	if err != nil {
		return fmt.Errorf("create %s decoder: %w", c.Name(), err)
	}
	defer dec.Close()

	uncompressed := countio.NewReader(dec, nil)

	var offloadOpts []offload.Option
	if opts.ChunkSize > 0 {
		offloadOpts = append(offloadOpts, offload.WithChunkSize(opts.ChunkSize))
	}
	if opts.QueueDepth > 0 {
		offloadOpts = append(offloadOpts, offload.WithQueueDepth(opts.QueueDepth))
	}
	if opts.ReadTimeout > 0 {
		offloadOpts = append(offloadOpts, offload.WithReadTimeout(opts.ReadTimeout))
	}
	r := offload.NewReader(uncompressed, offloadOpts...)
	defer r.Close()

	files, err := extract(tar.NewReader(r), opts.OutDir)
	if err != nil {
		return err
	}

	metrics.IncArchivesRestored()
	metrics.AddCompressedBytesRead(compressed.Count())
	metrics.AddUncompressedBytesRead(uncompressed.Count())
	logger.Debug("shard archive restored",
		"archive", shard, "files", files,
		"compressed_bytes", compressed.Count(),
		"uncompressed_bytes", uncompressed.Count())
	return nil
}
