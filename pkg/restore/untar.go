package restore

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shardpack/shardpack/internal/logger"
	"github.com/shardpack/shardpack/pkg/bufpool"
)

// extract unpacks every entry of the tar stream under outDir and
// returns the number of regular files written.
//
// Entry names are archive-relative; any name that would resolve outside
// outDir (absolute, or containing "..") is rejected, failing the whole
// shard. Directories that only appear implicitly as file parents are
// created with default permissions.
func extract(tr *tar.Reader, outDir string) (int, error) {
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("read archive entry: %w", err)
		}

		name := filepath.FromSlash(hdr.Name)
		if !filepath.IsLocal(name) {
			return files, fmt.Errorf("archive entry %q escapes the output directory", hdr.Name)
		}
		target := filepath.Join(outDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return files, fmt.Errorf("create directory %q: %w", hdr.Name, err)
			}

		case tar.TypeReg:
			if err := writeFile(tr, target, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return files, fmt.Errorf("extract %q: %w", hdr.Name, err)
			}
			files++

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return files, fmt.Errorf("create parent of %q: %w", hdr.Name, err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return files, fmt.Errorf("create symlink %q: %w", hdr.Name, err)
			}

		case tar.TypeXGlobalHeader:
			// Metadata-only entry, nothing to materialize.

		default:
			logger.Warn("skipping unsupported archive entry",
				"name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

func writeFile(r io.Reader, target string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	buf := bufpool.Get()
	defer bufpool.Put(buf)

	if _, err := io.CopyBuffer(f, r, *buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write contents: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
