package storage

import (
	"sync"

	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/iamNilotpal/ignite/pkg/options"
	"github.com/iamNilotpal/ignite/pkg/seginfo"
	"go.uber.org/zap"
)

// Manager owns every log file in a database directory: the single active
// segment appends go to, and the set of sealed segments reads are served
// from. It also owns the directory scan that runs once, at Open.
type Manager struct {
	dir       string
	threshold uint64
	log       *zap.SugaredLogger

	mu     sync.Mutex
	lastID uint64 // greatest file_id ever issued; every new id must exceed it
	active *Segment
	sealed map[uint64]*Segment
}

// Open scans dir, replays every log file into a fresh index, seals any
// file left active by a prior crash, and opens a new active segment ready
// for writes. It returns the manager and the rebuilt index together, since
// both come out of the same recovery pass.
func Open(dir string, opts *options.Options, log *zap.SugaredLogger) (*Manager, *index.Index, error) {
	result, err := recover(dir, log)
	if err != nil {
		return nil, nil, err
	}

	activeID := seginfo.NextFileID(result.lastID)
	active, err := CreateActive(dir, activeID)
	if err != nil {
		return nil, nil, err
	}

	log.Infow(
		"storage manager ready",
		"activeFileId", activeID, "sealedFileCount", len(result.sealed), "keyCount", result.idx.Len(),
	)

	mgr := &Manager{
		dir:       dir,
		threshold: opts.ActiveFileThreshold,
		log:       log,
		lastID:    activeID,
		active:    active,
		sealed:    result.sealed,
	}
	return mgr, result.idx, nil
}

// Append writes record to the active segment, then rotates to a fresh
// active segment if that append pushed the file's size past the
// configured threshold. A record is always written to the segment it was
// offered to, even one that straddles the threshold — rotation only ever
// affects where the *next* append goes. It returns the file_id and value
// offset the caller should store in the index.
func (m *Manager) Append(record []byte) (fileID uint64, valuePos uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.active
	valuePos, err = active.Append(record)
	if err != nil {
		return 0, 0, err
	}
	fileID = active.ID()

	if uint64(active.Size()) >= m.threshold {
		if err := m.rotateLocked(); err != nil {
			return 0, 0, err
		}
	}

	return fileID, valuePos, nil
}

// rotateLocked seals the current active segment, caches it as a sealed
// handle, and opens a fresh active segment. Callers must hold m.mu.
func (m *Manager) rotateLocked() error {
	sealedPath, err := m.active.Seal()
	if err != nil {
		return err
	}

	sealedID := m.active.ID()
	reopened, err := OpenSealed(sealedPath, sealedID)
	if err != nil {
		return err
	}
	m.sealed[sealedID] = reopened

	newID := seginfo.NextFileID(m.lastID)
	newActive, err := CreateActive(m.dir, newID)
	if err != nil {
		return err
	}
	m.lastID = newID

	m.log.Infow("rotated active log file", "sealedFileId", sealedID, "newActiveFileId", newID)
	m.active = newActive
	return nil
}

// ReadValue reads a value given the (file_id, offset, length) locator a
// caller got from the index. It transparently serves from the active
// segment or from a cached sealed segment, whichever currently owns the id.
func (m *Manager) ReadValue(fileID uint64, pos uint64, length uint32) ([]byte, error) {
	m.mu.Lock()
	seg := m.segmentForLocked(fileID)
	m.mu.Unlock()

	if seg == nil {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "locator references unknown log file").
			WithDetail("fileId", fileID)
	}
	return seg.ReadValue(pos, length)
}

func (m *Manager) segmentForLocked(fileID uint64) *Segment {
	if m.active.ID() == fileID {
		return m.active
	}
	return m.sealed[fileID]
}

// ActiveID returns the file_id of the current active segment.
func (m *Manager) ActiveID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.ID()
}

// Dir returns the database directory this manager serves.
func (m *Manager) Dir() string { return m.dir }

// Threshold returns the configured active-file rotation size, the same
// bound the compactor uses when sizing its merge-output segments.
func (m *Manager) Threshold() uint64 { return m.threshold }

// SealedIDs returns the file_ids of every sealed segment, in no particular
// order. Used by the compactor to know which files become stale once a
// merge completes.
func (m *Manager) SealedIDs() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, 0, len(m.sealed))
	for id := range m.sealed {
		ids = append(ids, id)
	}
	return ids
}

// ForceRotate seals the current active segment unconditionally and opens a
// new one, without checking the size threshold. The compactor calls this
// at the start of a merge so every record present before the merge began
// lives in a segment the merge pass can safely read without racing new
// writes.
func (m *Manager) ForceRotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotateLocked()
}

// CreateMergeSegment creates a new segment for compaction output,
// allocating it a file_id strictly greater than any id the manager has
// ever issued — including the active file's — so merge outputs can never
// collide with a live file. The segment is writable until the caller
// calls Seal on it directly; it is not tracked by the manager until
// SwapSealed installs it.
func (m *Manager) CreateMergeSegment() (*Segment, error) {
	m.mu.Lock()
	id := seginfo.NextFileID(m.lastID)
	m.lastID = id
	m.mu.Unlock()

	return CreateActive(m.dir, id)
}

// SwapSealed atomically replaces the manager's sealed-segment set: merged
// installs the new merge-output segments (already sealed by the caller)
// and stale removes the segments that have been fully superseded. Any
// stale segment still tracked is closed and unlinked.
func (m *Manager) SwapSealed(merged map[uint64]*Segment, stale []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, seg := range merged {
		m.sealed[id] = seg
	}

	var firstErr error
	for _, id := range stale {
		seg, ok := m.sealed[id]
		if !ok {
			continue
		}
		delete(m.sealed, id)
		if err := seg.Remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every open segment handle: the active file and every
// cached sealed file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if err := m.active.Close(); err != nil {
		firstErr = err
	}
	for _, seg := range m.sealed {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
