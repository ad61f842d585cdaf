// Package codec abstracts the per-shard compression stream.
//
// A shard on disk is a compressed stream wrapping a tar container. The
// shard writer and the restore pipeline only need a small capability
// surface from the compression side: wrap a writer into an encoder whose
// Close flushes everything, and wrap a reader into a decoder. Codec
// captures that surface so the rest of the pipeline does not care which
// algorithm produced a shard.
//
// Two codecs are registered: zstd (the default, klauspost/compress) and
// lz4 (pierrec/lz4). Shard files carry the codec in their extension
// (.tar.zstd, .tar.lz4), which is how the restore-side enumerator picks
// the right decoder per file.
package codec

import (
	"fmt"
	"io"
	"strings"
)

// Codec wraps streams with a compression algorithm.
type Codec interface {
	// Name is the config/CLI identifier, e.g. "zstd".
	Name() string

	// Ext is the shard filename suffix including the container part,
	// e.g. ".tar.zstd".
	Ext() string

	// NewEncoder wraps w. Closing the returned writer flushes all
	// buffered compressed output but does not close w.
	NewEncoder(w io.Writer) (io.WriteCloser, error)

	// NewDecoder wraps r. Closing the returned reader releases decoder
	// resources but does not close r.
	NewDecoder(r io.Reader) (io.ReadCloser, error)
}

// Options tunes codec construction.
type Options struct {
	// Level is the compression level. Zero selects the codec's default.
	Level int

	// EncoderWorkers is the number of goroutines the encoder may use
	// internally, decoupling compression from the caller's I/O. Zero
	// selects one worker.
	EncoderWorkers int
}

// DefaultName is the codec used when none is configured.
const DefaultName = "zstd"

var codecs = map[string]func(Options) Codec{
	"zstd": newZstd,
	"lz4":  newLZ4,
}

// ByName returns the codec registered under name.
func ByName(name string, opts Options) (Codec, error) {
	ctor, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

// ForFile returns the codec whose shard extension matches the file name.
// The second return is false when the name does not look like a shard.
func ForFile(name string) (Codec, bool) {
	for _, ctor := range codecs {
		c := ctor(Options{})
		if strings.HasSuffix(name, c.Ext()) {
			return c, true
		}
	}
	return nil, false
}

// Names lists the registered codec names in deterministic order.
func Names() []string {
	return []string{"zstd", "lz4"}
}
