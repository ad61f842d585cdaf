package shard

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/errcount"
	"github.com/shardpack/shardpack/pkg/walk"
)

func testCodec(t *testing.T) codec.Codec {
	t.Helper()
	c, err := codec.ByName("zstd", codec.Options{})
	require.NoError(t, err)
	return c
}

// readShard decodes one shard file into a name→content map.
func readShard(t *testing.T, path string, c codec.Codec) map[string][]byte {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := c.NewDecoder(f)
	require.NoError(t, err)
	defer dec.Close()

	contents := map[string][]byte{}
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[hdr.Name] = data
	}
	return contents
}

// entryFor builds a walk.Entry for an existing file.
func entryFor(t *testing.T, path string) walk.Entry {
	t.Helper()
	info, err := os.Lstat(path)
	require.NoError(t, err)
	return walk.Entry{Path: path, DirEnt: fs.FileInfoToDirEntry(info)}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "00000000.tar.zstd", FileName(0, ".tar.zstd"))
	assert.Equal(t, "00000042.tar.lz4", FileName(42, ".tar.lz4"))
	assert.Equal(t, "99999999.tar.zstd", FileName(99_999_999, ".tar.zstd"))
}

func TestFactoryAssignsMonotonicIndices(t *testing.T) {
	f := NewFactory(t.TempDir(), t.TempDir(), testCodec(t), &errcount.Counter{})

	const n = 32
	indices := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, _ := f.allocate()
			indices <- idx
		}()
	}
	wg.Wait()
	close(indices)

	var got []uint64
	for idx := range indices {
		got = append(got, idx)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	for i, idx := range got {
		assert.Equal(t, uint64(i), idx, "indices must be contiguous from zero")
	}
}

func TestWriterNoFileWithoutEntries(t *testing.T) {
	outDir := t.TempDir()
	errs := &errcount.Counter{}
	w := NewFactory(outDir, t.TempDir(), testCodec(t), errs).Build()

	w.Finalize()

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "an untouched shard must not create an output file")
	assert.Equal(t, uint64(0), errs.Count())
}

func TestWriterRoundTrip(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(inDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "sub", "b.txt"), nil, 0o644))

	errs := &errcount.Counter{}
	c := testCodec(t)
	w := NewFactory(outDir, inDir, c, errs).Build()

	assert.Equal(t, walk.Continue, w.Handle(entryFor(t, filepath.Join(inDir, "a.txt"))))
	assert.Equal(t, walk.Continue, w.Handle(entryFor(t, filepath.Join(inDir, "sub", "b.txt"))))
	w.Finalize()

	require.Equal(t, uint64(0), errs.Count())

	got := readShard(t, filepath.Join(outDir, "00000000.tar.zstd"), c)
	assert.Equal(t, map[string][]byte{
		"a.txt":     []byte("hello"),
		"sub/b.txt": {},
	}, got)
}

func TestWriterSkipsDirectories(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(inDir, "sub"), 0o755))

	w := NewFactory(outDir, inDir, testCodec(t), &errcount.Counter{}).Build()
	assert.Equal(t, walk.Continue, w.Handle(entryFor(t, filepath.Join(inDir, "sub"))))
	w.Finalize()

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "directories alone must not activate a shard")
}

func TestWriterExclusiveCreate(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("data"), 0o644))

	// Occupy the shard's output path.
	existing := filepath.Join(outDir, "00000000.tar.zstd")
	require.NoError(t, os.WriteFile(existing, []byte("precious"), 0o644))

	errs := &errcount.Counter{}
	w := NewFactory(outDir, inDir, testCodec(t), errs).Build()

	assert.Equal(t, walk.Stop, w.Handle(entryFor(t, filepath.Join(inDir, "a.txt"))))
	assert.Equal(t, uint64(1), errs.Count(), "setup failure counted exactly once")

	// Further entries are discarded silently, without double counting.
	assert.Equal(t, walk.Stop, w.Handle(entryFor(t, filepath.Join(inDir, "a.txt"))))
	assert.Equal(t, uint64(1), errs.Count())

	w.Finalize()
	assert.Equal(t, uint64(1), errs.Count())

	// The existing file was neither overwritten nor truncated.
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
}

func TestWriterFinalizeIdempotent(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("x"), 0o644))

	errs := &errcount.Counter{}
	c := testCodec(t)
	w := NewFactory(outDir, inDir, c, errs).Build()
	w.Handle(entryFor(t, filepath.Join(inDir, "a.txt")))

	w.Finalize()
	w.Finalize() // second call is a no-op

	assert.Equal(t, uint64(0), errs.Count())
	got := readShard(t, filepath.Join(outDir, "00000000.tar.zstd"), c)
	assert.Equal(t, []byte("x"), got["a.txt"])
}

func TestWriterCountsTraversalErrors(t *testing.T) {
	errs := &errcount.Counter{}
	w := NewFactory(t.TempDir(), t.TempDir(), testCodec(t), errs).Build()

	status := w.Handle(walk.Entry{Path: "whatever", Err: os.ErrPermission})
	assert.Equal(t, walk.Continue, status, "traversal errors do not stop the worker")
	assert.Equal(t, uint64(1), errs.Count())
}

func TestCompress(t *testing.T) {
	t.Run("ConcreteScenario", func(t *testing.T) {
		// Input tree {a.txt: 5 bytes, sub/b.txt: 0 bytes} with two
		// threads: shard zero exists, indices have no gaps, and the
		// union of shard contents is exactly the input tree.
		inDir := t.TempDir()
		outDir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(inDir, "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("12345"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "sub", "b.txt"), nil, 0o644))

		c := testCodec(t)
		require.NoError(t, Compress(Options{
			InPath:  inDir,
			OutDir:  outDir,
			Threads: 2,
			Codec:   c,
		}))

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for i, name := range names {
			assert.Equal(t, FileName(uint64(i), c.Ext()), name, "no gaps in shard numbering")
		}

		union := map[string][]byte{}
		for _, name := range names {
			for k, v := range readShard(t, filepath.Join(outDir, name), c) {
				union[k] = v
			}
		}
		assert.Equal(t, map[string][]byte{
			"a.txt":     []byte("12345"),
			"sub/b.txt": {},
		}, union)
	})

	t.Run("SingleFileInput", func(t *testing.T) {
		inDir := t.TempDir()
		outDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "only.txt"), []byte("solo"), 0o644))

		c := testCodec(t)
		require.NoError(t, Compress(Options{
			InPath:  filepath.Join(inDir, "only.txt"),
			OutDir:  outDir,
			Threads: 1,
			Codec:   c,
		}))

		got := readShard(t, filepath.Join(outDir, "00000000.tar.zstd"), c)
		assert.Equal(t, []byte("solo"), got["only.txt"])
	})

	t.Run("MissingInput", func(t *testing.T) {
		err := Compress(Options{
			InPath:  filepath.Join(t.TempDir(), "nope"),
			OutDir:  t.TempDir(),
			Threads: 1,
			Codec:   testCodec(t),
		})
		assert.Error(t, err)
	})

	t.Run("ExistingShardFails", func(t *testing.T) {
		inDir := t.TempDir()
		outDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("x"), 0o644))

		c := testCodec(t)
		require.NoError(t, os.WriteFile(filepath.Join(outDir, FileName(0, c.Ext())), []byte("old"), 0o644))

		err := Compress(Options{
			InPath:  inDir,
			OutDir:  outDir,
			Threads: 1,
			Codec:   c,
		})
		assert.Error(t, err, "aggregated error count must surface as failure")
	})
}
