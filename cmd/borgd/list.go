package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"borgd/internal/services/borg"
)

var listCmd = &cobra.Command{
	Use:   "list <config>",
	Short: "List archives in the repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}
	env, err := passphraseEnv(cfg)
	if err != nil {
		return err
	}

	svc := borg.New(log.Logger, cfg.Borg, env)
	return outcomeErr(svc.List(cmd.Context()))
}
