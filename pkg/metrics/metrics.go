// Package metrics exposes Prometheus counters for long-running
// operations.
//
// Collection is opt-in: until Init is called every recording function is
// a no-op with zero overhead, so the hot paths can call them
// unconditionally. When enabled (metrics.listen configured or
// --metrics-listen passed), the CLI serves the registry on /metrics for
// the duration of the operation, which is how operators watch multi-hour
// compress runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	c        *counters
)

type counters struct {
	filesArchived    prometheus.Counter
	bytesArchived    prometheus.Counter
	shardsOpened     prometheus.Counter
	shardsFinalized  prometheus.Counter
	archivesRestored prometheus.Counter
	compressedRead   prometheus.Counter
	uncompressedRead prometheus.Counter
	errorsTotal      prometheus.Counter
}

// Init creates the registry and counters. Idempotent.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}

	reg := prometheus.NewRegistry()
	c = &counters{
		filesArchived: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_files_archived_total",
			Help: "Number of files appended to shards",
		}),
		bytesArchived: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_bytes_archived_total",
			Help: "Uncompressed bytes appended to shards",
		}),
		shardsOpened: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_shards_opened_total",
			Help: "Shard output files created",
		}),
		shardsFinalized: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_shards_finalized_total",
			Help: "Shards flushed, fsynced and closed",
		}),
		archivesRestored: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_archives_restored_total",
			Help: "Shard archives fully unpacked",
		}),
		compressedRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_compressed_bytes_read_total",
			Help: "Compressed bytes read from shard files during restore",
		}),
		uncompressedRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_uncompressed_bytes_read_total",
			Help: "Decompressed bytes fed to the unpacker during restore",
		}),
		errorsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "shardpack_errors_total",
			Help: "Failures recorded by any pipeline component",
		}),
	}
	registry = reg
}

// Enabled reports whether Init has been called.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// Handler returns the /metrics HTTP handler. Callers must have called
// Init first; otherwise a handler over an empty registry is returned.
func Handler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func get() *counters {
	mu.Lock()
	defer mu.Unlock()
	return c
}

// AddFilesArchived records files appended to a shard.
func AddFilesArchived(n int) {
	if m := get(); m != nil {
		m.filesArchived.Add(float64(n))
	}
}

// AddBytesArchived records uncompressed bytes appended to a shard.
func AddBytesArchived(n uint64) {
	if m := get(); m != nil {
		m.bytesArchived.Add(float64(n))
	}
}

// IncShardsOpened records a shard file creation.
func IncShardsOpened() {
	if m := get(); m != nil {
		m.shardsOpened.Inc()
	}
}

// IncShardsFinalized records a completed shard finalization.
func IncShardsFinalized() {
	if m := get(); m != nil {
		m.shardsFinalized.Inc()
	}
}

// IncArchivesRestored records a fully unpacked archive.
func IncArchivesRestored() {
	if m := get(); m != nil {
		m.archivesRestored.Inc()
	}
}

// AddCompressedBytesRead records compressed bytes consumed during
// restore.
func AddCompressedBytesRead(n uint64) {
	if m := get(); m != nil {
		m.compressedRead.Add(float64(n))
	}
}

// AddUncompressedBytesRead records decompressed bytes consumed during
// restore.
func AddUncompressedBytesRead(n uint64) {
	if m := get(); m != nil {
		m.uncompressedRead.Add(float64(n))
	}
}

// IncErrors records one pipeline failure.
func IncErrors() {
	if m := get(); m != nil {
		m.errorsTotal.Inc()
	}
}
