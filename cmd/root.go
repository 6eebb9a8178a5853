package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsbackup/internal/logger"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for fsbackup.
	rootCmd = &cobra.Command{
		Use:   "fsbackup",
		Short: "CLI tool for filesystem backup and restore",
		Long: `fsbackup archives directories into compressed tar archives using
full, incremental or differential selection, driven by the timestamps
of prior runs recorded in a metadata file.`,
	}
)

// Execute runs the root command.
func Execute() {
	log, err := logger.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "./configs/config.yaml", "path to YAML config file")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
