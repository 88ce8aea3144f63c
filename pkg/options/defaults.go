package options

import "time"

const (
	// DefaultDataDir is the default base directory IgniteDB stores its
	// data files in when no other directory is specified.
	DefaultDataDir = "/var/lib/ignitedb"

	// DefaultCompactInterval is the default interval between
	// caller-scheduled compaction runs.
	DefaultCompactInterval = time.Hour * 5

	// MinActiveFileThreshold is the smallest allowed rotation threshold (1 MiB).
	MinActiveFileThreshold uint64 = 1 * 1024 * 1024

	// MaxActiveFileThreshold is the largest allowed rotation threshold (256 MiB).
	MaxActiveFileThreshold uint64 = 256 * 1024 * 1024

	// DefaultActiveFileThreshold is the default active-file rotation
	// threshold: 4 MiB, per the Bitcask design this engine implements.
	DefaultActiveFileThreshold uint64 = 4 * 1024 * 1024

	// DefaultLockFileName is the default sentinel filename for the
	// writer's advisory lock.
	DefaultLockFileName = "db.lock"
)

// defaultOptions holds the default configuration for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	ActiveFileThreshold: DefaultActiveFileThreshold,
	LockFileName:        DefaultLockFileName,
	CompactInterval:     DefaultCompactInterval,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
