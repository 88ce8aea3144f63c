package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordPointer is the locator stored per key: just enough to find the
// key's most recent live record on disk without parsing anything else.
type RecordPointer struct {
	// FileID identifies which log file holds the record.
	FileID uint64

	// ValuePos is the byte offset of the value payload (not the record)
	// within its file, so a read needs no header parse.
	ValuePos uint64

	// ValueLen is the length, in bytes, of the value payload.
	ValueLen uint32

	// Timestamp is the record's write time, the primary conflict
	// resolution key when the same key appears in more than one record.
	Timestamp uint64
}

// newer reports whether candidate should replace current under the
// (timestamp, file_id, offset) tie-break rule: the greater timestamp wins;
// on a tie the greater file_id wins; on a further tie the greater offset
// (the later byte-offset) wins. current == nil always loses.
func newer(candidate, current *RecordPointer) bool {
	if current == nil {
		return true
	}
	if candidate.Timestamp != current.Timestamp {
		return candidate.Timestamp > current.Timestamp
	}
	if candidate.FileID != current.FileID {
		return candidate.FileID > current.FileID
	}
	return candidate.ValuePos > current.ValuePos
}

// Index is the in-memory hash table mapping keys to their on-disk locator.
// It is a pure data structure: no method here performs I/O.
type Index struct {
	log     *zap.SugaredLogger
	mu      sync.RWMutex
	entries map[string]*RecordPointer
	closed  atomic.Bool
}
