// Package options provides data structures and functions for configuring
// the Ignite database. It defines the parameters that control Ignite's
// on-disk layout, rotation threshold, and maintenance behavior.
package options

import (
	"strings"
	"time"
)

// Options defines the configuration parameters for an Ignite database.
type Options struct {
	// DataDir is the directory that holds the writer lock and every
	// active/sealed log file. Created on Open if it doesn't exist.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// ActiveFileThreshold is the size, in bytes, at which the active log
	// file is sealed and a new one is opened. Checked after every append.
	//
	// Default: 4 MiB
	ActiveFileThreshold uint64 `json:"activeFileThreshold"`

	// LockFileName is the sentinel filename used for the writer's
	// exclusive advisory lock, relative to DataDir.
	//
	// Default: "db.lock"
	LockFileName string `json:"lockFileName"`

	// CompactInterval documents the interval a background compactor would
	// use to trigger merges automatically. The engine itself only exposes
	// synchronous, caller-triggered compaction (spec Non-goal); this field
	// is retained for callers that schedule Compact() on a timer.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`
}

// OptionFunc is a function type that modifies Ignite's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its default value.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base directory where log files and the writer
// lock are stored.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithActiveFileThreshold sets the size at which the active log file rotates.
func WithActiveFileThreshold(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinActiveFileThreshold && size <= MaxActiveFileThreshold {
			o.ActiveFileThreshold = size
		}
	}
}

// WithLockFileName sets the sentinel filename used for the writer lock.
func WithLockFileName(name string) OptionFunc {
	return func(o *Options) {
		name = strings.TrimSpace(name)
		if name != "" {
			o.LockFileName = name
		}
	}
}

// WithCompactInterval sets the interval a caller-driven compaction
// scheduler should use between Compact() calls.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}
