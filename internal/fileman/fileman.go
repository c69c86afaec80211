// Package fileman covers the filesystem collaborations of the pipeline:
// source discovery by filename pattern, file copy and the modification-time
// staleness check.
package fileman

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source is one discovered origin file: a short name captured from the
// filename plus its path.
type Source struct {
	Name string
	Path string
}

// Manager performs the filesystem operations of the pipeline.
type Manager struct {
	log *zap.SugaredLogger
}

// New creates a file manager.
func New(log *zap.SugaredLogger) *Manager {
	return &Manager{log: log}
}

// FindMatchingFiles walks directory recursively and returns every file whose
// name matches pattern, in walk order. The pattern's first capture group
// becomes the source's short name. Discovery order is preserved because it
// decides the tie-break of first-value aggregation.
func (m *Manager) FindMatchingFiles(directory, pattern string) ([]Source, error) {
	// Match from the start of the filename, like a prefix match.
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("file pattern %q must contain a capture group for the source name", pattern)
	}

	var sources []Source
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.log.Warnf("Skipping unreadable path %q: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		match := re.FindStringSubmatch(d.Name())
		if match == nil {
			return nil
		}
		sources = append(sources, Source{Name: match[1], Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %q: %w", directory, err)
	}
	return sources, nil
}

// CopyFile duplicates src at dst. Failures are logged, not returned: the
// checker copy is a convenience and must not fail the run.
func (m *Manager) CopyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		m.log.Errorf("Failed to copy file from %q to %q: %v", src, dst, err)
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		m.log.Errorf("Failed to copy file from %q to %q: %v", src, dst, err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		m.log.Errorf("Failed to copy file from %q to %q: %v", src, dst, err)
		return
	}
	m.log.Infof("File copied from %q to %q.", src, dst)
}

// Staleness describes the result of a modification-time check.
type Staleness struct {
	ModTime time.Time
	Elapsed time.Duration
	Stale   bool
	// Message is the human-readable alert queued when the file is stale.
	Message string
}

// CheckFileModification compares the file's mtime against the inactivity
// window and builds the alert text used both for logging and notification.
func (m *Manager) CheckFileModification(path string, limitHours int) (Staleness, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Staleness{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	modTime := info.ModTime()
	elapsed := time.Since(modTime)

	days := int(elapsed.Hours()) / 24
	hours := int(elapsed.Hours()) % 24
	minutes := int(elapsed.Minutes()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("*%d* days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("*%d* hours", hours))
	}
	parts = append(parts, fmt.Sprintf("*%d* minutes", minutes))

	message := fmt.Sprintf("*The file was modified at:*\n%s\n%s ago.",
		modTime.Format("06.02.01 15:04:05"), strings.Join(parts, ", "))

	st := Staleness{
		ModTime: modTime,
		Elapsed: elapsed,
		Stale:   elapsed > time.Duration(limitHours)*time.Hour,
	}
	if st.Stale {
		st.Message = fmt.Sprintf(
			"*File:*```\n%s ```has not been modified for more than *%d* hours.\n\n%s",
			path, limitHours, message)
	} else {
		st.Message = message
	}
	return st, nil
}
