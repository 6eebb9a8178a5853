package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsbackup/internal/operations"
)

var (
	restoreFile   string
	restoreTarget string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Extract a backup archive into a target directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreFile == "" {
			return fmt.Errorf("backup file is required (-f flag)")
		}
		return operations.Restore(restoreFile, restoreTarget)
	},
}

func init() {
	restoreCmd.Flags().
		StringVarP(&restoreFile, "file", "f", "", "path to the backup archive")
	restoreCmd.Flags().
		StringVarP(&restoreTarget, "target", "t", ".", "directory to restore into")
}
