package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kebairia/fsbackup/internal/config"
	"github.com/kebairia/fsbackup/internal/operations"
)

var (
	backupType   string
	backupLevel  string
	backupOutput string
)

var backupCmd = &cobra.Command{
	Use:   "backup [roots...]",
	Short: "Archive the configured roots into a tar.gz backup",
	Long: `backup walks every configured root (or the roots given as
arguments), applies the exclusion rules, selects entries per the chosen
backup type and streams them into a compressed archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		if err := cfg.Load(ConfigFile); err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Flags and arguments override the configuration file.
		if len(args) > 0 {
			cfg.Backup.Roots = args
		}
		if backupType != "" {
			cfg.Backup.Type = backupType
		}
		if backupLevel != "" {
			cfg.Backup.Compression = backupLevel
		}
		if backupOutput != "" {
			cfg.Backup.Output = backupOutput
		}

		op, err := operations.NewOperator(cfg)
		if err != nil {
			return err
		}
		_, err = op.Backup()
		return err
	},
}

func init() {
	backupCmd.Flags().
		StringVarP(&backupType, "type", "t", "", "backup type: full, incremental or differential")
	backupCmd.Flags().
		StringVarP(&backupLevel, "level", "l", "", "compression level: fast, default or best")
	backupCmd.Flags().
		StringVarP(&backupOutput, "output", "o", "", "output archive name (defaults to backup_<timestamp>.tar.gz)")
}
