package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"borgd/internal/config"
	"borgd/internal/scheduler"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon <config>",
	Short: "Run backup+prune cycles on a fixed interval",
	Long: `Run indefinitely, firing one backup+prune cycle per interval bucket.
A cycle is due when the last successful cycle predates the current interval
boundary; failed cycles are retried on the next wake-up.`,
	Args: cobra.ExactArgs(1),
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
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

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	sched := scheduler.New(log.Logger, cfg.Daemon, newCycleRunner(cfg, env))
	if err := sched.Run(ctx); err != nil {
		log.Error().Err(err).Msg("daemon failed")
		return err
	}
	return nil
}
