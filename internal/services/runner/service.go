// Package runner composes borg invocations into backup cycles.
package runner

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"borgd/internal/models"
	"borgd/internal/services/borg"
)

// Service defines the composite cycle operations built on the borg service.
type Service interface {
	BackupCycle(ctx context.Context) models.CycleOutcome
	PruneCycle(ctx context.Context) models.CycleOutcome
	SingleCycle(ctx context.Context) models.CycleOutcome
}

// createDefaultFlags are passed on every create invocation. Other actions
// carry only their configured flags; borg rejects --filter outside create.
var createDefaultFlags = []string{"--progress", "--filter", "AME", "--list", "--show-rc"}

// Impl implements the Service interface.
type Impl struct {
	borgSvc borg.Service
	cfg     models.Config
	logger  zerolog.Logger
}

// New creates a new cycle runner.
func New(logger zerolog.Logger, cfg models.Config, borgSvc borg.Service) *Impl {
	return &Impl{
		borgSvc: borgSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

// BackupCycle runs the create action: the create default flags, configured
// excludes resolved against the backup directory, global borg flags, the
// backup directory as positional argument and the configured archive name.
func (s *Impl) BackupCycle(ctx context.Context) models.CycleOutcome {
	create := s.cfg.Create

	flags := make([]string, 0, len(createDefaultFlags)+2*len(create.Excludes)+len(s.cfg.Borg.Flags))
	flags = append(flags, createDefaultFlags...)
	for _, exclude := range create.Excludes {
		flags = append(flags, "--exclude", filepath.Join(create.BackupDirectory, exclude))
	}
	flags = append(flags, s.cfg.Borg.Flags...)

	s.logger.Info().Str("backup_directory", create.BackupDirectory).Msg("starting backup")
	return s.borgSvc.Run(ctx, "create", flags, []string{create.BackupDirectory}, create.Name)
}

// PruneCycle runs the prune action with the configured prune flags against
// the bare repository.
func (s *Impl) PruneCycle(ctx context.Context) models.CycleOutcome {
	s.logger.Info().Msg("starting prune")
	return s.borgSvc.Run(ctx, "prune", s.cfg.Prune.Flags, nil, "")
}

// SingleCycle runs a backup followed by a prune. Prune is skipped when the
// backup fails; the first failing step's outcome is returned.
func (s *Impl) SingleCycle(ctx context.Context) models.CycleOutcome {
	outcome := s.BackupCycle(ctx)
	if !outcome.Success {
		s.logger.Error().Int("exit_code", outcome.ExitCode).Msg("backup failed, skipping prune")
		return outcome
	}
	return s.PruneCycle(ctx)
}
