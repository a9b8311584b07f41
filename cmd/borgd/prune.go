package main

import (
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune <config>",
	Short: "Prune old archives",
	Long:  `Apply the configured prune flags against the repository.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	env, err := passphraseEnv(cfg)
	if err != nil {
		return err
	}

	return outcomeErr(newCycleRunner(cfg, env).PruneCycle(cmd.Context()))
}
