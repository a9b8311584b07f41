// Package config resolves cascading configuration files.
//
// A configuration file may name other files in its top-level `imports` key.
// Imports are resolved depth-first and deep-merged in listed order, with the
// importing file's own keys applied last, so the importer always wins.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"borgd/internal/models"
)

const (
	defaultBinary        = "borg"
	defaultIntervalHours = 6
	defaultSleepCap      = 15 * time.Minute
	defaultLockFile      = "/tmp/borgd.lock"
)

// Resolver resolves a configuration file and its import cascade.
type Resolver struct {
	// absolute paths currently being resolved, for cycle detection
	resolving map[string]bool
}

// NewResolver creates a new configuration resolver.
func NewResolver() *Resolver {
	return &Resolver{resolving: make(map[string]bool)}
}

// Resolve loads the file at path, merges its import cascade and parses the
// result into a Config.
func (r *Resolver) Resolve(path string) (*models.Config, error) {
	settings, err := r.resolveMap(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, fmt.Errorf("merging config: %w", err)
	}

	return parse(v)
}

// resolveMap returns the effective settings map for one file: all imports
// merged in listed order, then the file's own keys on top.
func (r *Resolver) resolveMap(path string) (map[string]interface{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}
	if r.resolving[abs] {
		return nil, fmt.Errorf("import cycle detected at %s", path)
	}
	r.resolving[abs] = true
	defer delete(r.resolving, abs)

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	contents := v.AllSettings()

	imports, err := importList(contents["imports"])
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	result := make(map[string]interface{})
	for _, imp := range imports {
		imported, err := r.resolveMap(filepath.Join(filepath.Dir(path), imp))
		if err != nil {
			return nil, err
		}
		deepMerge(result, imported)
	}
	deepMerge(result, contents)
	delete(result, "imports")

	return result, nil
}

// importList normalizes the imports key: absent, a single path string, or a
// list of path strings.
func importList(raw interface{}) ([]string, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []interface{}:
		imports := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("imports must contain only strings, got %T", item)
			}
			imports = append(imports, s)
		}
		return imports, nil
	default:
		return nil, fmt.Errorf("imports must be a string or list of strings, got %T", raw)
	}
}

// deepMerge applies overlay onto base. Nested maps merge per key; scalars and
// lists are replaced wholesale.
func deepMerge(base, overlay map[string]interface{}) {
	for key, val := range overlay {
		overlayMap, overlayIsMap := val.(map[string]interface{})
		baseMap, baseIsMap := base[key].(map[string]interface{})
		if overlayIsMap && baseIsMap {
			deepMerge(baseMap, overlayMap)
			continue
		}
		if overlayIsMap {
			// copy so later merges never reach into the source map
			copied := make(map[string]interface{}, len(overlayMap))
			deepMerge(copied, overlayMap)
			base[key] = copied
			continue
		}
		base[key] = val
	}
}

func parse(v *viper.Viper) (*models.Config, error) {
	cfg := &models.Config{}

	cfg.Borg = models.BorgSettings{
		Binary:            v.GetString("borg.binary"),
		Repository:        v.GetString("borg.repository"),
		PassphraseCommand: v.GetString("borg.passphrase_command"),
		Flags:             v.GetStringSlice("borg.flags"),
	}

	if cfg.Borg.Binary == "" {
		cfg.Borg.Binary = defaultBinary
	}
	if cfg.Borg.Repository == "" {
		return nil, fmt.Errorf("borg.repository is required")
	}

	cfg.Create = models.CreateSettings{
		BackupDirectory: v.GetString("create.backup_directory"),
		Name:            v.GetString("create.name"),
		Excludes:        v.GetStringSlice("create.excludes"),
		CacheDirs:       v.GetStringSlice("create.cachedirs"),
	}

	cfg.Prune = models.PruneSettings{
		Flags: v.GetStringSlice("prune.flags"),
	}

	cfg.Daemon = models.DaemonSettings{
		IntervalHours: v.GetInt("daemon.interval_hours"),
		SleepCap:      v.GetDuration("daemon.sleep_cap"),
		LockFile:      v.GetString("daemon.lock_file"),
	}

	if cfg.Daemon.IntervalHours == 0 {
		cfg.Daemon.IntervalHours = defaultIntervalHours
	}
	if cfg.Daemon.IntervalHours < 1 || 24%cfg.Daemon.IntervalHours != 0 {
		return nil, fmt.Errorf("daemon.interval_hours must divide 24 evenly, got %d", cfg.Daemon.IntervalHours)
	}
	if cfg.Daemon.SleepCap == 0 {
		cfg.Daemon.SleepCap = defaultSleepCap
	}
	if cfg.Daemon.LockFile == "" {
		cfg.Daemon.LockFile = defaultLockFile
	}

	return cfg, nil
}

// ValidateCreate checks the fields required by operations that create
// archives (create, single, daemon).
func ValidateCreate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if cfg.Create.BackupDirectory == "" {
		return fmt.Errorf("create.backup_directory is required")
	}
	return nil
}
