package shard

import "fmt"

// indexDigits is the fixed width of the shard index in file names.
// Zero-padding keeps lexicographic and numeric order identical, which
// is what makes the restore-side sort deterministic.
const indexDigits = 8

// FileName returns the on-disk name for a shard index and codec
// extension, e.g. FileName(3, ".tar.zstd") == "00000003.tar.zstd".
func FileName(index uint64, ext string) string {
	return fmt.Sprintf("%0*d%s", indexDigits, index, ext)
}
