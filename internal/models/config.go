// Package models contains the data structures used throughout borgd.
package models

import "time"

// Config holds the effective configuration after the import cascade has been
// resolved. It is built once at startup and never mutated afterwards.
type Config struct {
	Borg   BorgSettings
	Create CreateSettings
	Prune  PruneSettings
	Daemon DaemonSettings
}

// BorgSettings holds the external borg binary and repository configuration.
type BorgSettings struct {
	Binary            string
	Repository        string
	PassphraseCommand string // optional, exported as BORG_PASSCOMMAND
	Flags             []string
}

// CreateSettings holds backup creation settings.
type CreateSettings struct {
	BackupDirectory string
	Name            string   // optional archive name, appended as repo::name
	Excludes        []string // relative to BackupDirectory
	CacheDirs       []string // glob patterns relative to BackupDirectory
}

// PruneSettings holds prune settings.
type PruneSettings struct {
	Flags []string
}

// DaemonSettings holds daemon loop settings.
type DaemonSettings struct {
	IntervalHours int
	SleepCap      time.Duration
	LockFile      string
}
