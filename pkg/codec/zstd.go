package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec is the default shard codec. Encoding runs on the encoder's
// internal goroutines so Write calls return quickly and the caller's
// disk I/O is not serialized behind CPU-bound compression.
type zstdCodec struct {
	opts Options
}

func newZstd(opts Options) Codec {
	return &zstdCodec{opts: opts}
}

func (c *zstdCodec) Name() string { return "zstd" }
func (c *zstdCodec) Ext() string  { return ".tar.zstd" }

func (c *zstdCodec) NewEncoder(w io.Writer) (io.WriteCloser, error) {
	workers := c.opts.EncoderWorkers
	if workers <= 0 {
		workers = 1
	}

	encOpts := []zstd.EOption{
		zstd.WithEncoderConcurrency(workers),
	}
	if c.opts.Level > 0 {
		encOpts = append(encOpts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.opts.Level)))
	}

	return zstd.NewWriter(w, encOpts...)
}

func (c *zstdCodec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
