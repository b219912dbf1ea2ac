package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gdmigrate/config"
)

var forceInit bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to gdmigrate.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(GetRootDir(), "gdmigrate.yaml")
		if _, err := os.Stat(path); err == nil && !forceInit {
			return exitErr(ExitContract, fmt.Errorf("%s already exists (use --force to overwrite)", path))
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return exitErr(ExitIO, fmt.Errorf("failed to write config: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}
