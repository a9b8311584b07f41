package main

import (
	"fmt"
	"os"

	"github.com/Songmu/prompter"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"

	"borgd/internal/config"
	"borgd/internal/models"
	"borgd/internal/services/borg"
	"borgd/internal/services/cachetag"
	"borgd/internal/services/runner"
)

// loadConfig resolves the configuration cascade for a command.
func loadConfig(path string) (*models.Config, error) {
	cfg, err := config.NewResolver().Resolve(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to load config")
		return nil, err
	}

	log.Info().
		Str("config", path).
		Str("repository", cfg.Borg.Repository).
		Msg("configuration loaded")
	return cfg, nil
}

// passphraseEnv builds the environment for borg processes: the inherited
// environment plus exactly one of BORG_PASSCOMMAND or BORG_PASSPHRASE.
func passphraseEnv(cfg *models.Config) ([]string, error) {
	if cfg.Borg.PassphraseCommand != "" {
		return append(os.Environ(), "BORG_PASSCOMMAND="+cfg.Borg.PassphraseCommand), nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, fmt.Errorf("no borg.passphrase_command configured and stdin is not a terminal")
	}

	passphrase := prompter.Password("Enter repository passphrase")
	return append(os.Environ(), "BORG_PASSPHRASE="+passphrase), nil
}

// markCaches tags the configured cache directories before a backup.
func markCaches(cfg *models.Config) error {
	if len(cfg.Create.CacheDirs) == 0 {
		return nil
	}
	if err := cachetag.New(log.Logger).Mark(cfg.Create.BackupDirectory, cfg.Create.CacheDirs); err != nil {
		log.Error().Err(err).Msg("failed to mark cache directories")
		return err
	}
	return nil
}

// newCycleRunner wires the borg service and the composite cycle runner.
func newCycleRunner(cfg *models.Config, env []string) *runner.Impl {
	return runner.New(log.Logger, *cfg, borg.New(log.Logger, cfg.Borg, env))
}

// outcomeErr converts a failed outcome into an ExitError so main can
// propagate the external exit code.
func outcomeErr(outcome models.CycleOutcome) error {
	if outcome.Success {
		return nil
	}
	return &borg.ExitError{Code: outcome.ExitCode}
}
