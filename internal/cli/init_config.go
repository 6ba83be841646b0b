package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kaatna/internal/config"
	"github.com/mgpai22/kaatna/internal/faults"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a sample configuration file",
	Long: `Write a commented sample configuration. Without a path the file goes to
~/.config/kaatna/config.toml. An existing file is left alone unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	// skips config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			if _, err := os.Stat(path); err == nil {
				return faults.Errorf(faults.ErrConfig, "init config", "%s already exists (use --force to overwrite)", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
		}

		if err := config.CreateSample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
