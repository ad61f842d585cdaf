package commands

import (
	"github.com/spf13/cobra"

	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/shard"
)

var (
	compressInPath string
	compressOutDir string
	compressCodec  string
	compressLevel  int
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Pack a directory tree into compressed shard archives",
	Long: `Pack the input path into compressed shard archives.

Each worker thread traverses its share of the tree and writes its own
shard, so the output contains at most --threads archives, numbered from
00000000. Workers that receive no files leave no empty shard behind.

Examples:
  # Pack a directory with 8 workers
  shardpack compress --threads 8 --in-path ./data --out-dir ./shards

  # Pack with lz4 instead of zstd
  shardpack compress -t 4 --in-path ./data --out-dir ./shards --codec lz4`,
	RunE: runCompress,
}

func init() {
	compressCmd.Flags().StringVar(&compressInPath, "in-path", "", "File or directory to pack")
	compressCmd.Flags().StringVar(&compressOutDir, "out-dir", "", "Directory receiving the shard archives")
	compressCmd.Flags().StringVar(&compressCodec, "codec", "", "Compression codec (zstd|lz4)")
	compressCmd.Flags().IntVar(&compressLevel, "level", 0, "Compression level (0 = codec default)")
	_ = compressCmd.MarkFlagRequired("in-path")
	_ = compressCmd.MarkFlagRequired("out-dir")
}

func runCompress(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	name := cfg.Compress.Codec
	if compressCodec != "" {
		name = compressCodec
	}
	level := cfg.Compress.Level
	if cmd.Flags().Changed("level") {
		level = compressLevel
	}

	c, err := codec.ByName(name, codec.Options{
		Level:          level,
		EncoderWorkers: 1,
	})
	if err != nil {
		return err
	}

	return shard.Compress(shard.Options{
		InPath:  compressInPath,
		OutDir:  compressOutDir,
		Threads: threads,
		Codec:   c,
	})
}
