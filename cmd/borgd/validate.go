package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"borgd/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "Validate a configuration cascade",
	Long:  `Resolve the configuration file and its imports without running any backup operations.`,
	Args:  cobra.ExactArgs(1),
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	configFile := args[0]

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	cfg, err := config.NewResolver().Resolve(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to resolve config")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Borg:")
	fmt.Printf("  Binary: %s\n", cfg.Borg.Binary)
	fmt.Printf("  Repository: %s\n", cfg.Borg.Repository)
	fmt.Printf("  Passphrase command: %v\n", cfg.Borg.PassphraseCommand != "")
	fmt.Printf("  Flags: %v\n", cfg.Borg.Flags)
	fmt.Println()
	fmt.Println("Create:")
	fmt.Printf("  Backup directory: %s\n", cfg.Create.BackupDirectory)
	fmt.Printf("  Archive name: %s\n", cfg.Create.Name)
	fmt.Printf("  Excludes: %v\n", cfg.Create.Excludes)
	fmt.Printf("  Cache dirs: %v\n", cfg.Create.CacheDirs)
	fmt.Println()
	fmt.Println("Prune:")
	fmt.Printf("  Flags: %v\n", cfg.Prune.Flags)
	fmt.Println()
	fmt.Println("Daemon:")
	fmt.Printf("  Interval: %dh\n", cfg.Daemon.IntervalHours)
	fmt.Printf("  Sleep cap: %s\n", cfg.Daemon.SleepCap)
	fmt.Printf("  Lock file: %s\n", cfg.Daemon.LockFile)

	return nil
}
