// Package borg invokes the external borg binary.
package borg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"borgd/internal/models"
)

// ExitError reports a non-zero exit status from the external tool. Single-shot
// operations propagate Code as the process exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("borg exited with status %d", e.Code)
}

// Service defines the interface for borg invocations.
type Service interface {
	Run(ctx context.Context, action string, flags, postFlags []string, archiveName string) models.CycleOutcome
	List(ctx context.Context) models.CycleOutcome
}

// CommandRunner spawns an external process and reports its exit code. It
// allows testing without a real borg binary.
type CommandRunner interface {
	Run(ctx context.Context, env []string, name string, args ...string) (int, error)
}

// DefaultRunner runs commands via os/exec with the caller's standard streams
// inherited, so borg's progress output goes straight to the terminal.
type DefaultRunner struct{}

// Run executes a command and returns its exit code. A non-zero exit is not an
// error; err is reserved for failures to spawn at all.
func (r *DefaultRunner) Run(ctx context.Context, env []string, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Impl implements the Service interface.
type Impl struct {
	runner CommandRunner
	cfg    models.BorgSettings
	env    []string
	logger zerolog.Logger
}

// New creates a new borg service. env is the full environment for spawned
// processes, including exactly one of BORG_PASSCOMMAND or BORG_PASSPHRASE.
func New(logger zerolog.Logger, cfg models.BorgSettings, env []string) *Impl {
	return &Impl{
		runner: &DefaultRunner{},
		cfg:    cfg,
		env:    env,
		logger: logger,
	}
}

// NewWithRunner creates a new borg service with a custom runner (for testing).
func NewWithRunner(logger zerolog.Logger, cfg models.BorgSettings, env []string, runner CommandRunner) *Impl {
	return &Impl{
		runner: runner,
		cfg:    cfg,
		env:    env,
		logger: logger,
	}
}

// Run invokes borg once: binary, action, caller flags, the repository
// (suffixed ::archiveName when given), then trailing positional arguments.
// Flags beyond what the caller supplies are never added, so prune and list
// spawn exactly their own command lines. It never retries.
func (s *Impl) Run(ctx context.Context, action string, flags, postFlags []string, archiveName string) models.CycleOutcome {
	repo := s.cfg.Repository
	if archiveName != "" {
		repo += "::" + archiveName
	}

	args := make([]string, 0, 1+len(flags)+1+len(postFlags))
	args = append(args, action)
	args = append(args, flags...)
	args = append(args, repo)
	args = append(args, postFlags...)

	s.logger.Debug().Str("binary", s.cfg.Binary).Strs("args", args).Msg("running borg")

	code, err := s.runner.Run(ctx, s.env, s.cfg.Binary, args...)
	if err != nil {
		s.logger.Error().Err(err).Str("binary", s.cfg.Binary).Msg("failed to run borg")
		return models.CycleOutcome{Success: false, ExitCode: code}
	}
	if code != 0 {
		s.logger.Error().Int("exit_code", code).Str("action", action).Msg("borg returned non-zero status")
	}

	return models.CycleOutcome{Success: code == 0, ExitCode: code}
}

// List runs the list action against the bare repository.
func (s *Impl) List(ctx context.Context) models.CycleOutcome {
	return s.Run(ctx, "list", nil, nil, "")
}
