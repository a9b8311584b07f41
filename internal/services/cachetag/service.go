// Package cachetag marks directories with CACHEDIR.TAG sentinel files so the
// backup tool skips them.
package cachetag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// TagFileName is the sentinel file name recognized by borg's --exclude-caches.
const TagFileName = "CACHEDIR.TAG"

// TagContents is the full sentinel file written into each cache directory.
const TagContents = `Signature: 8a477f597d28d172789f06886806bc55
# This file is a cache directory tag created.
# For information about cache directory tags, see:
#	http://www.brynosaurus.com/cachedir/
#
# The directory is marked as cachedir to avoid it being backed up by borg.
`

// tagSignature is the first line of TagContents; an existing file must start
// with it or the tag is considered foreign.
var tagSignature = strings.SplitN(TagContents, "\n", 2)[0]

// ConflictError reports an existing CACHEDIR.TAG whose contents do not match
// the expected signature. It is never safe to overwrite such a file.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("refusing to overwrite %s: existing file is not a cache directory tag", e.Path)
}

// Service defines the interface for cache directory tagging.
type Service interface {
	Mark(rootDir string, patterns []string) error
}

// Impl implements the Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new cache tagger.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Mark expands each glob pattern relative to rootDir and writes the sentinel
// file into every matched directory that does not already carry one. Matched
// directories that already carry a valid tag are left untouched, so repeated
// calls are no-ops.
func (s *Impl) Mark(rootDir string, patterns []string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(rootDir, pattern))
		if err != nil {
			return fmt.Errorf("expanding cachedir pattern %q: %w", pattern, err)
		}

		for _, dir := range matches {
			if err := s.markDir(dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Impl) markDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	tagPath := filepath.Join(dir, TagFileName)

	contents, err := os.ReadFile(tagPath)
	if err == nil {
		if !strings.HasPrefix(string(contents), tagSignature) {
			return &ConflictError{Path: tagPath}
		}
		s.logger.Debug().Str("path", tagPath).Msg("cache tag already present")
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("reading cache tag %s: %w", tagPath, err)
	}

	s.logger.Info().Str("path", tagPath).Msg("marking cache directory")
	if err := os.WriteFile(tagPath, []byte(TagContents), 0o644); err != nil {
		return fmt.Errorf("writing cache tag %s: %w", tagPath, err)
	}
	return nil
}
