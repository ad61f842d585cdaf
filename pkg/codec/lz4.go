package codec

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec trades compression ratio for speed. Useful when the input is
// large and mostly incompressible, or when restore throughput matters
// more than shard size.
type lz4Codec struct {
	opts Options
}

func newLZ4(opts Options) Codec {
	return &lz4Codec{opts: opts}
}

func (c *lz4Codec) Name() string { return "lz4" }
func (c *lz4Codec) Ext() string  { return ".tar.lz4" }

func (c *lz4Codec) NewEncoder(w io.Writer) (io.WriteCloser, error) {
	workers := c.opts.EncoderWorkers
	if workers <= 0 {
		workers = 1
	}

	zw := lz4.NewWriter(w)
	lzOpts := []lz4.Option{
		lz4.ConcurrencyOption(workers),
		lz4.CompressionLevelOption(lz4Level(c.opts.Level)),
	}
	if err := zw.Apply(lzOpts...); err != nil {
		return nil, err
	}
	return zw, nil
}

func (c *lz4Codec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// lz4Level maps the 0-9 config scale onto lz4's named levels. Zero is
// the fast (default) mode.
func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level == 1:
		return lz4.Level1
	case level == 2:
		return lz4.Level2
	case level == 3:
		return lz4.Level3
	case level == 4:
		return lz4.Level4
	case level == 5:
		return lz4.Level5
	case level == 6:
		return lz4.Level6
	case level == 7:
		return lz4.Level7
	case level == 8:
		return lz4.Level8
	default:
		return lz4.Level9
	}
}
