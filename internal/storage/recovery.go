package storage

import (
	"io"
	"sort"

	"github.com/iamNilotpal/ignite/internal/codec"
	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/iamNilotpal/ignite/pkg/seginfo"
	"go.uber.org/zap"
)

// recoveryResult is what a directory scan at Open produces: a rebuilt
// index, every sealed segment (handles left open so the engine can serve
// reads immediately), and the lastID seen, so the caller knows where to
// start the new active file's id search.
type recoveryResult struct {
	idx    *index.Index
	sealed map[uint64]*Segment
	lastID uint64
}

// recover classifies every log file in dir, seals any file left active by a
// prior crash (per the simplification chosen for this store: a crash that
// leaves more than one active file is resolved by sealing all of them
// rather than picking a survivor), then replays every file in ascending
// file_id order to rebuild the index.
//
// Any checksum failure, in any file, aborts recovery. A truncated tail
// record is treated as the end of valid data, not a corruption: in a file
// that was active at crash time (a partial write interrupted by the crash)
// the file is truncated back to its last valid record; in a file that was
// already sealed the trailing bytes are left on disk.
func recover(dir string, log *zap.SugaredLogger) (*recoveryResult, error) {
	entries, err := seginfo.Discover(dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to discover log files").
			WithPath(dir)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	idx := index.New(log)
	sealed := make(map[uint64]*Segment, len(entries))
	var lastID uint64

	for _, entry := range entries {
		if entry.ID > lastID {
			lastID = entry.ID
		}

		if entry.Active {
			seg, err := recoverCrashedActive(entry, idx, log)
			if err != nil {
				return nil, err
			}
			sealed[seg.ID()] = seg
			continue
		}

		seg, err := OpenSealed(entry.Path, entry.ID)
		if err != nil {
			return nil, err
		}
		if err := replay(seg, idx, log, false); err != nil {
			seg.Close()
			return nil, err
		}
		sealed[seg.ID()] = seg
	}

	return &recoveryResult{idx: idx, sealed: sealed, lastID: lastID}, nil
}

// recoverCrashedActive reopens a file that was left with the active suffix
// by a prior crash, replays it leniently, truncates any trailing partial
// record, and seals it. Seal closes the write handle, so the segment is
// reopened read-only before being handed back — the index already points
// into it and reads must work immediately.
func recoverCrashedActive(entry seginfo.Entry, idx *index.Index, log *zap.SugaredLogger) (*Segment, error) {
	seg, err := reopenActiveForRecovery(entry.Path, entry.ID)
	if err != nil {
		return nil, err
	}

	if err := replay(seg, idx, log, true); err != nil {
		seg.Close()
		return nil, err
	}

	sealedPath, err := seg.Seal()
	if err != nil {
		return nil, err
	}

	reopened, err := OpenSealed(sealedPath, entry.ID)
	if err != nil {
		return nil, err
	}

	log.Infow("sealed log file left active by a prior crash", "fileId", reopened.ID())
	return reopened, nil
}

// replay decodes every record in seg sequentially and applies it to idx.
// When lenient is true (seg was active at crash time), a truncated tail
// record stops replay early and the file is truncated at the last valid
// record boundary instead of failing. When lenient is false (seg was
// already sealed before this process started), a truncated tail record is
// still tolerated — the file is left untouched and replay simply stops at
// the last good record, per spec §4.5 step 5 — but a CRC failure is not:
// a corrupt record anywhere in an immutable sealed file means real data
// damage, not a torn write, and aborts recovery.
func replay(seg *Segment, idx *index.Index, log *zap.SugaredLogger, lenient bool) error {
	r, err := seg.reader()
	if err != nil {
		return err
	}
	defer r.Close()

	total := seg.Size()
	var cursor int64
	for {
		rec, consumed, err := codec.Decode(r, total-cursor)
		if err == io.EOF {
			break
		}
		if err != nil {
			if err == codec.ErrCorruptRecord {
				return errors.NewCorruptRecordError(err, seginfo.SealedName(seg.ID()), int(cursor))
			}

			if lenient {
				log.Warnw(
					"truncating active log file at last valid record",
					"fileId", seg.ID(), "offset", cursor, "reason", err,
				)
				return truncateAt(seg, cursor)
			}

			log.Warnw(
				"sealed log file ends in a truncated record; treating it as end of data",
				"fileId", seg.ID(), "offset", cursor, "reason", err,
			)
			break
		}

		valuePos := uint64(cursor) + uint64(codec.HeaderSize) + uint64(len(rec.Key))
		rp := &index.RecordPointer{
			FileID:    seg.ID(),
			ValuePos:  valuePos,
			ValueLen:  uint32(len(rec.Value)),
			Timestamp: rec.Timestamp,
		}

		key := string(rec.Key)
		if rec.IsTombstone() {
			idx.DeleteIfNotNewer(key, rp)
		} else {
			idx.Upsert(key, rp)
		}

		cursor += consumed
	}

	return nil
}

// truncateAt discards any bytes in seg past offset, so a subsequent append
// starts cleanly where the last valid record ended.
func truncateAt(seg *Segment, offset int64) error {
	seg.mu.Lock()
	defer seg.mu.Unlock()

	if err := seg.file.Truncate(offset); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate partially written log file").
			WithPath(seg.path).WithOffset(int(offset))
	}
	if _, err := seg.file.Seek(offset, io.SeekStart); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to reposition after truncation").
			WithPath(seg.path)
	}
	seg.size = offset
	return nil
}
