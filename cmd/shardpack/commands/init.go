package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardpack/shardpack/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a configuration file populated with default values.

The file is written to the default location unless --config points
somewhere else. An existing file is only overwritten with --force.

Examples:
  # Write the default config
  shardpack init

  # Write to a custom location
  shardpack init --config /etc/shardpack/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.Save(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	return nil
}
