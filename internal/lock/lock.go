// Package lock provides the process-wide writer exclusion Ignite uses to
// guarantee single-writer access to a database directory (spec §4.4).
//
// The lock is an OS advisory exclusive lock taken on a sentinel file,
// db.lock, inside the database directory. It says nothing about the
// contents of that file — only its existence as a lockable handle matters.
package lock

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/iamNilotpal/ignite/pkg/errors"
	"go.uber.org/zap"
)

// Lock holds the process's exclusive claim on a database directory.
type Lock struct {
	fl  *flock.Flock
	log *zap.SugaredLogger
}

// Acquire creates (if necessary) the lock file fileName inside dir and
// takes a non-blocking exclusive advisory lock on it. If another process
// already holds the lock, it returns a WriterLock-classified error instead
// of blocking — the spec requires Open to fail immediately, not wait.
func Acquire(dir, fileName string, log *zap.SugaredLogger) (*Lock, error) {
	path := filepath.Join(dir, fileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to acquire writer lock",
		).WithPath(path)
	}
	if !locked {
		return nil, errors.NewWriterLockError(path, nil)
	}

	log.Infow("writer lock acquired", "path", path)
	return &Lock{fl: fl, log: log}, nil
}

// Release drops the exclusive lock. It is safe to call at most once; the
// engine calls it exactly once, from Close.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to release writer lock").
			WithPath(l.fl.Path())
	}
	l.log.Infow("writer lock released", "path", l.fl.Path())
	return nil
}
