package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"borgd/internal/config"
)

var createCmd = &cobra.Command{
	Use:     "create <config>",
	Aliases: []string{"backup"},
	Short:   "Create a backup archive",
	Long:    `Create one backup archive of the configured backup directory.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	if err := config.ValidateCreate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	if err := markCaches(cfg); err != nil {
		return err
	}
	env, err := passphraseEnv(cfg)
	if err != nil {
		return err
	}

	return outcomeErr(newCycleRunner(cfg, env).BackupCycle(cmd.Context()))
}
