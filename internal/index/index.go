// Package index provides the in-memory hash table implementation for the
// ignite key-value store. This package embodies the core Bitcask
// architectural principle: maintain all keys in memory with minimal
// metadata while storing actual values on disk.
//
// The index enables O(1) key lookups through an in-memory hash table while
// keeping per-key overhead to one RecordPointer. Iteration order is not
// part of the public contract (spec §4.3), but ForEach visits keys in
// sorted order so callers that depend on deterministic output, such as
// tests, get it for free.
package index

import (
	stdErrors "errors"
	"sort"

	"go.uber.org/zap"
)

// ErrIndexClosed is returned by any method called after Close.
var ErrIndexClosed = stdErrors.New("index: operation failed: cannot access closed index")

// New creates an empty Index ready for concurrent use.
func New(log *zap.SugaredLogger) *Index {
	return &Index{log: log, entries: make(map[string]*RecordPointer, 1024)}
}

// Get returns the locator for key, if any.
func (idx *Index) Get(key string) (*RecordPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rp, ok := idx.entries[key]
	return rp, ok
}

// Put unconditionally sets key's locator. Used by the write path, where the
// caller (the engine) is always appending the newest record for that key.
func (idx *Index) Put(key string, rp *RecordPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries[key] = rp
}

// Delete removes key's locator and reports whether it was present.
func (idx *Index) Delete(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, ok := idx.entries[key]
	delete(idx.entries, key)
	return ok
}

// Upsert applies the conflict-resolution tie-break rule (spec §3): it
// installs candidate only if there is no existing entry for key or
// candidate is newer than the existing one. It reports whether candidate
// was installed. Used during recovery replay, where records for the same
// key can arrive in any order relative to each other's timestamps if
// clocks ever go backwards.
func (idx *Index) Upsert(key string, candidate *RecordPointer) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !newer(candidate, idx.entries[key]) {
		return false
	}
	idx.entries[key] = candidate
	return true
}

// DeleteIfNotNewer erases key's entry only if the existing entry is not
// newer than tombstone, per the tie-break rule. Used during recovery replay
// when a tombstone record is encountered: a tombstone should only win if
// nothing newer already claimed the key.
func (idx *Index) DeleteIfNotNewer(key string, tombstone *RecordPointer) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing, ok := idx.entries[key]
	if !ok {
		return false
	}
	if newer(tombstone, existing) {
		delete(idx.entries, key)
		return true
	}
	return false
}

// Len returns the number of live keys in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// ForEach calls fn once per live key, in ascending key order, stopping
// early if fn returns false. It takes a stable snapshot of the key set
// before iterating, so fn may safely call back into other Index methods.
func (idx *Index) ForEach(fn func(key string, rp *RecordPointer) bool) {
	idx.mu.RLock()
	keys := make([]string, 0, len(idx.entries))
	snapshot := make(map[string]*RecordPointer, len(idx.entries))
	for k, v := range idx.entries {
		keys = append(keys, k)
		snapshot[k] = v
	}
	idx.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}

// Snapshot returns a point-in-time copy of the full key -> locator mapping,
// used by the compactor so the merge pass is unaffected by concurrent
// mutation of the live index.
func (idx *Index) Snapshot() map[string]*RecordPointer {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[string]*RecordPointer, len(idx.entries))
	for k, v := range idx.entries {
		out[k] = v
	}
	return out
}

// Replace atomically swaps the entire mapping, used by the compactor once
// a merge has produced a complete replacement directory.
func (idx *Index) Replace(entries map[string]*RecordPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = entries
}

// Close releases the index's backing map. The Index must not be used again
// afterwards.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()
	clear(idx.entries)
	idx.entries = nil

	return nil
}
