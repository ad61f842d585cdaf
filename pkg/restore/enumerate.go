// Package restore turns a directory of compressed shard archives back
// into the file tree they were packed from.
//
// Each shard is restored independently: a fixed-size worker pool picks
// shards off the enumerated list, and every worker runs its own
// decode-and-extract pipeline. A failure in one shard never stops the
// others; failures are collected and reported together at the end.
package restore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shardpack/shardpack/pkg/codec"
)

// Shards lists the shard archives in dir as full paths. Only regular
// entries whose name carries a registered shard extension are included;
// anything else in the directory is ignored. os.ReadDir returns entries
// sorted by name, so the result is in shard-index order.
func Shards(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var shards []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := codec.ForFile(e.Name()); !ok {
			continue
		}
		shards = append(shards, filepath.Join(dir, e.Name()))
	}

	return shards, nil
}
