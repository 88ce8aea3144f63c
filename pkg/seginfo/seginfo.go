// Package seginfo names and discovers the log files that make up an Ignite
// database directory.
//
// Every log file is named after its file_id, a millisecond Unix timestamp
// chosen at creation time so that lexicographic order on the id equals
// creation order. Exactly one file at a time carries the active suffix;
// every other file carries the sealed suffix:
//
//	<file_id>.active.log   the one file currently open for appends
//	<file_id>.log          a sealed, read-only file
//
// On a file_id collision (two files created within the same millisecond)
// the caller advances the id by one millisecond with NextFileID, which
// keeps ids unique without needing any other coordination.
package seginfo

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iamNilotpal/ignite/pkg/filesys"
)

const (
	// ActiveSuffix marks the single log file currently open for appends.
	ActiveSuffix = ".active.log"

	// SealedSuffix marks a read-only, immutable log file.
	SealedSuffix = ".log"

	// LockFileName is the sentinel file used for the writer's advisory lock.
	LockFileName = "db.lock"
)

// ActiveName returns the filename for the active log file with the given id.
func ActiveName(id uint64) string {
	return fmt.Sprintf("%d%s", id, ActiveSuffix)
}

// SealedName returns the filename for a sealed log file with the given id.
func SealedName(id uint64) string {
	return fmt.Sprintf("%d%s", id, SealedSuffix)
}

// ParseFileID extracts the file_id from a log filename and reports whether
// the file is the active file. It returns an error if the filename doesn't
// match either the active or sealed grammar.
func ParseFileID(name string) (id uint64, active bool, err error) {
	// The active suffix must be checked first: it also ends in ".log",
	// so checking the sealed suffix first would misclassify every active file.
	switch {
	case strings.HasSuffix(name, ActiveSuffix):
		idStr := strings.TrimSuffix(name, ActiveSuffix)
		id, err = strconv.ParseUint(idStr, 10, 64)
		return id, true, err
	case strings.HasSuffix(name, SealedSuffix):
		idStr := strings.TrimSuffix(name, SealedSuffix)
		id, err = strconv.ParseUint(idStr, 10, 64)
		return id, false, err
	default:
		return 0, false, fmt.Errorf("seginfo: %q is not a log file", name)
	}
}

// NextFileID returns a file_id guaranteed to be strictly greater than lastID.
// Under normal operation the current millisecond timestamp already exceeds
// lastID; the max guards against the rare case of two files being created
// inside the same millisecond.
func NextFileID(lastID uint64) uint64 {
	now := uint64(time.Now().UnixMilli())
	if now > lastID {
		return now
	}
	return lastID + 1
}

// Entry describes one log file discovered in a database directory.
type Entry struct {
	ID     uint64
	Path   string
	Active bool
}

// Discover lists every log file (active or sealed) in dir. It does not
// inspect file contents or impose any ordering; callers sort the result by
// ID when chronological order matters.
func Discover(dir string) ([]Entry, error) {
	paths, err := filesys.ReadDir(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		if name == LockFileName {
			continue
		}

		id, active, err := ParseFileID(name)
		if err != nil {
			// Not a log file (e.g. a stray file left in the directory); skip it.
			continue
		}

		entries = append(entries, Entry{ID: id, Path: path, Active: active})
	}

	return entries, nil
}
