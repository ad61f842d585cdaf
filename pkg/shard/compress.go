package shard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shardpack/shardpack/internal/logger"
	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/errcount"
	"github.com/shardpack/shardpack/pkg/walk"
)

// Options configures a compress run.
type Options struct {
	// InPath is the file or directory to archive. A directory is both
	// the traversal root and the path prefix stripped from archive
	// entry names; for a single file the parent directory is the
	// prefix.
	InPath string

	// OutDir receives the shard files. Created if missing.
	OutDir string

	// Threads is the number of traversal workers and therefore the
	// maximum number of shards.
	Threads int

	// Codec compresses each shard. Required.
	Codec codec.Codec
}

// Compress shards InPath into OutDir. Failures of individual files or
// shards are logged and counted but do not abort sibling shards: the
// returned error is non-nil iff at least one failure was recorded, and
// shards that completed stay on disk either way.
func Compress(opts Options) error {
	info, err := os.Stat(opts.InPath)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	prefix := opts.InPath
	if !info.IsDir() {
		prefix = filepath.Dir(opts.InPath)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("compress: create output dir: %w", err)
	}

	errs := &errcount.Counter{}
	factory := NewFactory(opts.OutDir, prefix, opts.Codec, errs)

	logger.Info("starting compression",
		"in_path", opts.InPath, "out_dir", opts.OutDir,
		"threads", opts.Threads, "codec", opts.Codec.Name())

	if err := walk.Walk(opts.InPath, opts.Threads, func() walk.Handler {
		return factory.Build()
	}); err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	return errs.Err("compress")
}
