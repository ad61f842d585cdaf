package commands

import (
	"github.com/spf13/cobra"

	"github.com/shardpack/shardpack/pkg/restore"
)

var (
	decompressInDir  string
	decompressOutDir string
)

var decompressCmd = &cobra.Command{
	Use:   "decompress",
	Short: "Restore a file tree from shard archives",
	Long: `Restore the file tree packed into the shard archives found in the
input directory.

Shards are restored concurrently by a pool of --threads workers. A
corrupt shard fails on its own; the remaining shards still restore, and
the command reports the combined failures at the end.

Examples:
  # Restore with 8 workers
  shardpack decompress --threads 8 --in-dir ./shards --out-dir ./data`,
	RunE: runDecompress,
}

func init() {
	decompressCmd.Flags().StringVar(&decompressInDir, "in-dir", "", "Directory holding the shard archives")
	decompressCmd.Flags().StringVar(&decompressOutDir, "out-dir", "", "Directory to restore the file tree into")
	_ = decompressCmd.MarkFlagRequired("in-dir")
	_ = decompressCmd.MarkFlagRequired("out-dir")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	return restore.Restore(restore.Options{
		InDir:       decompressInDir,
		OutDir:      decompressOutDir,
		Threads:     threads,
		ChunkSize:   cfg.Restore.ChunkSize.Int(),
		QueueDepth:  cfg.Restore.QueueDepth,
		ReadTimeout: cfg.Restore.ReadTimeout,
	})
}
