package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"borgd/internal/config"
)

var singleCmd = &cobra.Command{
	Use:   "single <config>",
	Short: "Run one backup+prune cycle",
	Long:  `Run a backup followed by a prune. Prune is skipped when the backup fails.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSingle,
}

func runSingle(cmd *cobra.Command, args []string) error {
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

	return outcomeErr(newCycleRunner(cfg, env).SingleCycle(cmd.Context()))
}
