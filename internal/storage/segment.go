// Package storage provides the log-file abstraction Ignite appends records
// to and reads values from, plus the recovery scan that rebuilds the
// in-memory index when a database is opened.
//
// A segment is one file on disk, either the single active (writable) file
// or one of any number of sealed (read-only) files. Segments know their
// own file_id, their current size, and how to append a record or read a
// value slice at a given (offset, length) — nothing more. Classifying
// segments by filename, rotating the active segment, and replaying records
// at Open all live in Manager and recovery.go.
package storage

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/iamNilotpal/ignite/internal/codec"
	"github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/iamNilotpal/ignite/pkg/seginfo"
)

// Segment is a single on-disk log file.
type Segment struct {
	id     uint64
	path   string
	file   *os.File
	sealed bool

	mu   sync.Mutex // guards size and the write path; reads use ReadAt and need no lock
	size int64
}

// CreateActive creates a brand-new active log file with the given id. It
// fails if a file with that name already exists, since file_ids are
// supposed to be unique — a collision here means the caller didn't advance
// past an id already in use.
func CreateActive(dir string, id uint64) (*Segment, error) {
	path := filepath.Join(dir, seginfo.ActiveName(id))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create active log file").
			WithPath(path).WithFileName(filepath.Base(path))
	}

	return &Segment{id: id, path: path, file: file}, nil
}

// OpenSealed opens an existing sealed (read-only) log file.
func OpenSealed(path string, id uint64) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0o644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open sealed log file").
			WithPath(path).WithFileName(filepath.Base(path))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat sealed log file").
			WithPath(path)
	}

	return &Segment{id: id, path: path, file: file, sealed: true, size: info.Size()}, nil
}

// reopenActiveForRecovery reopens a file that was left as "<id>.active.log"
// by a prior crash, for append+read, positioning the write cursor at the
// file's current end so replay and any subsequent appends are consistent.
func reopenActiveForRecovery(path string, id uint64) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to reopen active log file").
			WithPath(path).WithFileName(filepath.Base(path))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat active log file").
			WithPath(path)
	}

	if _, err := file.Seek(info.Size(), io.SeekStart); err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of active log file").
			WithPath(path)
	}

	return &Segment{id: id, path: path, file: file, size: info.Size()}, nil
}

// ID returns the segment's file_id.
func (s *Segment) ID() uint64 { return s.id }

// Path returns the segment's current path on disk.
func (s *Segment) Path() string { return s.path }

// Sealed reports whether the segment is read-only.
func (s *Segment) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Size returns the segment's current size in bytes.
func (s *Segment) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Append writes record to the end of the segment and fsyncs before
// returning, satisfying the spec's durability boundary: every completed
// put/remove is fsync'd before the engine reports success. It returns the
// absolute byte offset at which the record's value payload begins — the
// header and the key both precede the value, so the key length is read
// back out of the record's header to skip past it.
func (s *Segment) Append(record []byte) (valuePos uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return 0, errors.NewStorageError(nil, errors.ErrorCodeIO, "cannot append to a sealed segment").
			WithPath(s.path)
	}

	keyLen := binary.LittleEndian.Uint32(record[12:16])

	offset := s.size
	if _, err := s.file.Write(record); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record").
			WithPath(s.path).WithOffset(int(offset))
	}
	if err := s.file.Sync(); err != nil {
		return 0, errors.ClassifySyncError(err, filepath.Base(s.path), s.path, int(offset))
	}

	s.size += int64(len(record))
	return uint64(offset) + codec.HeaderSize + uint64(keyLen), nil
}

// ReadValue reads length bytes at pos from the segment's value region. It
// uses a positional read (ReadAt), so it never races with any other
// concurrent reader's cursor on the same file handle.
func (s *Segment) ReadValue(pos uint64, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}

	buf := make([]byte, length)
	if _, err := s.file.ReadAt(buf, int64(pos)); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read value").
			WithPath(s.path).WithOffset(int(pos))
	}
	return buf, nil
}

// Seal closes the segment for writes and renames it from its active
// filename to its sealed filename. The rename is same-directory, so any
// other file descriptor already open on the old path keeps pointing at the
// same inode. The segment's own handle is closed, so reads from the sealed
// file go through a fresh handle from OpenSealed.
func (s *Segment) Seal() (sealedPath string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return s.path, nil
	}

	if err := s.file.Sync(); err != nil {
		return "", errors.ClassifySyncError(err, filepath.Base(s.path), s.path, int(s.size))
	}
	if err := s.file.Close(); err != nil {
		return "", errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment before sealing").
			WithPath(s.path)
	}

	dir := filepath.Dir(s.path)
	newPath := filepath.Join(dir, seginfo.SealedName(s.id))
	if err := os.Rename(s.path, newPath); err != nil {
		return "", errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seal segment").
			WithPath(s.path)
	}

	s.path = newPath
	s.sealed = true
	s.file = nil
	return newPath, nil
}

// Close closes the segment's file handle without renaming it.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Remove closes (if still open) and unlinks the segment's file. Used by
// compaction to discard files once no directory entry points into them.
func (s *Segment) Remove() error {
	s.mu.Lock()
	path := s.path
	file := s.file
	s.file = nil
	s.mu.Unlock()

	if file != nil {
		_ = file.Close()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove segment file").WithPath(path)
	}
	return nil
}

// reader returns a fresh io.ReadCloser positioned at the start of the
// segment's file, for sequential record-by-record replay. Sequential
// Decode needs a real io.Reader with its own cursor, so replay opens a
// short-lived *os.File via path instead of borrowing the segment's
// handle, whose cursor the write path owns.
func (s *Segment) reader() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for replay").
			WithPath(s.path)
	}
	return f, nil
}
