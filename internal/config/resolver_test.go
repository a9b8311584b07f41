package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestResolve_MinimalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "backup.toml", `
[borg]
repository = "/repo"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "/repo", cfg.Borg.Repository)
	// Check defaults
	assert.Equal(t, "borg", cfg.Borg.Binary)
	assert.Equal(t, 6, cfg.Daemon.IntervalHours)
	assert.Equal(t, 15*time.Minute, cfg.Daemon.SleepCap)
	assert.Equal(t, "/tmp/borgd.lock", cfg.Daemon.LockFile)
}

func TestResolve_FullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "backup.toml", `
[borg]
binary = "/usr/bin/borg"
repository = "ssh://backup@host/./repo"
passphrase_command = "pass show borg"
flags = ["--compression", "lz4"]

[create]
backup_directory = "/data"
name = "nightly"
excludes = ["tmp", "cache"]
cachedirs = ["*/node_modules"]

[prune]
flags = ["--keep-daily", "7"]

[daemon]
interval_hours = 3
sleep_cap = "5m"
lock_file = "/run/borgd.lock"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/borg", cfg.Borg.Binary)
	assert.Equal(t, "ssh://backup@host/./repo", cfg.Borg.Repository)
	assert.Equal(t, "pass show borg", cfg.Borg.PassphraseCommand)
	assert.Equal(t, []string{"--compression", "lz4"}, cfg.Borg.Flags)
	assert.Equal(t, "/data", cfg.Create.BackupDirectory)
	assert.Equal(t, "nightly", cfg.Create.Name)
	assert.Equal(t, []string{"tmp", "cache"}, cfg.Create.Excludes)
	assert.Equal(t, []string{"*/node_modules"}, cfg.Create.CacheDirs)
	assert.Equal(t, []string{"--keep-daily", "7"}, cfg.Prune.Flags)
	assert.Equal(t, 3, cfg.Daemon.IntervalHours)
	assert.Equal(t, 5*time.Minute, cfg.Daemon.SleepCap)
	assert.Equal(t, "/run/borgd.lock", cfg.Daemon.LockFile)
}

func TestResolve_ImporterWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
[borg]
binary = "/opt/borg"
repository = "/base-repo"
`)
	path := writeConfig(t, dir, "host.toml", `
imports = ["base.toml"]

[borg]
repository = "/host-repo"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	// importer overrides per key, sibling keys from the import survive
	assert.Equal(t, "/host-repo", cfg.Borg.Repository)
	assert.Equal(t, "/opt/borg", cfg.Borg.Binary)
}

func TestResolve_LaterImportWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.toml", `
[borg]
repository = "/repo-a"
flags = ["--from-a"]
`)
	writeConfig(t, dir, "b.toml", `
[borg]
repository = "/repo-b"
`)
	path := writeConfig(t, dir, "host.toml", `
imports = ["a.toml", "b.toml"]

[create]
backup_directory = "/data"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "/repo-b", cfg.Borg.Repository)
	// key only present in the earlier import is kept
	assert.Equal(t, []string{"--from-a"}, cfg.Borg.Flags)
	assert.Equal(t, "/data", cfg.Create.BackupDirectory)
}

func TestResolve_SingleStringImport(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
[borg]
repository = "/repo"
`)
	path := writeConfig(t, dir, "host.toml", `
imports = "base.toml"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "/repo", cfg.Borg.Repository)
}

func TestResolve_ListsReplacedWholesale(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
[borg]
repository = "/repo"

[create]
excludes = ["tmp", "cache", "logs"]
`)
	path := writeConfig(t, dir, "host.toml", `
imports = ["base.toml"]

[create]
excludes = ["tmp"]
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"tmp"}, cfg.Create.Excludes)
}

func TestResolve_NestedImports(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "common/defaults.toml", `
[borg]
binary = "/opt/borg"
repository = "/default-repo"
`)
	// import path resolves relative to the importing file's directory
	writeConfig(t, dir, "common/site.toml", `
imports = ["defaults.toml"]

[prune]
flags = ["--keep-daily", "7"]
`)
	path := writeConfig(t, dir, "host.toml", `
imports = ["common/site.toml"]

[borg]
repository = "/host-repo"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	assert.Equal(t, "/opt/borg", cfg.Borg.Binary)
	assert.Equal(t, "/host-repo", cfg.Borg.Repository)
	assert.Equal(t, []string{"--keep-daily", "7"}, cfg.Prune.Flags)
}

func TestResolve_ImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.toml", `
imports = ["b.toml"]
`)
	writeConfig(t, dir, "b.toml", `
imports = ["a.toml"]
`)

	_, err := NewResolver().Resolve(filepath.Join(dir, "a.toml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle")
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := NewResolver().Resolve(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestResolve_MissingImport(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "host.toml", `
imports = ["gone.toml"]

[borg]
repository = "/repo"
`)

	_, err := NewResolver().Resolve(path)
	assert.Error(t, err)
}

func TestResolve_RepositoryRequired(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "host.toml", `
[create]
backup_directory = "/data"
`)

	_, err := NewResolver().Resolve(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "borg.repository is required")
}

func TestResolve_IntervalMustDivideDay(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "host.toml", `
[borg]
repository = "/repo"

[daemon]
interval_hours = 5
`)

	_, err := NewResolver().Resolve(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval_hours")
}

func TestResolve_ValuesPassedThroughVerbatim(t *testing.T) {
	t.Setenv("HOME", "/home/elsewhere")

	dir := t.TempDir()
	path := writeConfig(t, dir, "host.toml", `
[borg]
repository = "ssh://backup@host/./$HOME/repo"
passphrase_command = "pass show ${HOSTNAME}/borg"
`)

	cfg, err := NewResolver().Resolve(path)

	require.NoError(t, err)
	// literal $ sequences are configuration, not shell syntax
	assert.Equal(t, "ssh://backup@host/./$HOME/repo", cfg.Borg.Repository)
	assert.Equal(t, "pass show ${HOSTNAME}/borg", cfg.Borg.PassphraseCommand)
}

func TestValidateCreate(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "host.toml", `
[borg]
repository = "/repo"
`)

	cfg, err := NewResolver().Resolve(path)
	require.NoError(t, err)

	err = ValidateCreate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create.backup_directory")

	cfg.Create.BackupDirectory = "/data"
	assert.NoError(t, ValidateCreate(cfg))
}
