// Package engine provides the core database engine implementation for the Ignite storage system.
//
// The engine serves as the central coordinator and entry point for all database operations.
// It orchestrates the interaction between four main subsystems:
//   - Lock: Enforces single-writer access to the database directory
//   - Index: Manages in-memory key -> locator lookups
//   - Storage: Handles persistent data storage, append, read, rotation, and crash recovery
//   - Compaction: Rewrites live records into fresh segments on demand
//
// The engine implements a thread-safe interface with proper lifecycle management,
// ensuring resources are properly initialized and cleaned up. It uses atomic operations
// for state management to provide consistent behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/ignite/internal/codec"
	"github.com/iamNilotpal/ignite/internal/compaction"
	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/internal/lock"
	"github.com/iamNilotpal/ignite/internal/storage"
	pkgerrors "github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/iamNilotpal/ignite/pkg/filesys"
	"github.com/iamNilotpal/ignite/pkg/options"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Engine represents the main database engine that coordinates all subsystems.
// It acts as the primary interface for database operations and manages the lifecycle
// of all internal components. Every public method is serialized by mu, which plays
// the role of the "exterior mutex" a caller would otherwise need to provide.
type Engine struct {
	opts   *options.Options
	log    *zap.SugaredLogger
	closed atomic.Bool

	mu         sync.Mutex
	writerLock *lock.Lock
	index      *index.Index
	storage    *storage.Manager
	compactor  *compaction.Compactor
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens (or creates) a database at config.Options.DataDir and returns an
// Engine ready for use. It acquires the writer lock first, so a second
// process attempting to open the same directory fails fast with a
// WriterLock error instead of corrupting the first process's data.
func New(ctx context.Context, config *Config) (*Engine, error) {
	opts := config.Options
	log := config.Logger

	if err := filesys.CreateDir(opts.DataDir, 0o755, true); err != nil {
		return nil, pkgerrors.ClassifyDirectoryCreationError(err, opts.DataDir)
	}

	writerLock, err := lock.Acquire(opts.DataDir, opts.LockFileName, log)
	if err != nil {
		return nil, err
	}

	mgr, idx, err := storage.Open(opts.DataDir, opts, log)
	if err != nil {
		writerLock.Release()
		return nil, err
	}

	log.Infow("engine opened", "dataDir", opts.DataDir)

	return &Engine{
		opts:       opts,
		log:        log,
		writerLock: writerLock,
		index:      idx,
		storage:    mgr,
		compactor:  compaction.New(log),
	}, nil
}

// Put writes value for key, replacing any existing value. Both key and
// value must be non-empty: an empty key has nowhere to be looked up from,
// and an empty value is indistinguishable on disk from a tombstone.
func (e *Engine) Put(key, value []byte) error {
	if len(key) == 0 {
		return pkgerrors.NewInvalidKeyError()
	}
	if len(value) == 0 {
		return pkgerrors.NewInvalidValueError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	timestamp := uint64(time.Now().UnixMilli())
	record := codec.Encode(key, value, timestamp)

	fileID, valuePos, err := e.storage.Append(record)
	if err != nil {
		return err
	}

	e.index.Put(string(key), &index.RecordPointer{
		FileID:    fileID,
		ValuePos:  valuePos,
		ValueLen:  uint32(len(value)),
		Timestamp: timestamp,
	})
	return nil
}

// Ask returns the current value stored for key, or a KeyNotFound error if
// no live record exists for it.
func (e *Engine) Ask(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, pkgerrors.NewInvalidKeyError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	rp, ok := e.index.Get(string(key))
	if !ok {
		return nil, pkgerrors.NewKeyNotFoundError(string(key))
	}

	return e.storage.ReadValue(rp.FileID, rp.ValuePos, rp.ValueLen)
}

// Remove deletes key by appending a tombstone record. It returns a
// KeyNotFound error if key has no live value, mirroring Ask's contract —
// removing a key that was never there (or already removed) is an error,
// not a silent no-op.
func (e *Engine) Remove(key []byte) error {
	if len(key) == 0 {
		return pkgerrors.NewInvalidKeyError()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	if _, ok := e.index.Get(string(key)); !ok {
		return pkgerrors.NewKeyNotFoundError(string(key))
	}

	timestamp := uint64(time.Now().UnixMilli())
	record := codec.Encode(key, nil, timestamp)

	if _, _, err := e.storage.Append(record); err != nil {
		return err
	}

	e.index.Delete(string(key))
	return nil
}

// Compact rewrites every live key's value into a fresh set of segments
// and discards whatever sealed files become unreachable as a result. It
// blocks for its entire duration — the spec's synchronous-compaction
// design — and reports how many keys were rewritten.
func (e *Engine) Compact() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return 0, ErrEngineClosed
	}

	return e.compactor.Run(e.storage, e.index)
}

// Close gracefully shuts down the engine and releases all associated
// resources: the storage manager's file handles, the in-memory index, and
// finally the writer lock, so another process may open the directory
// immediately afterward.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if err := e.storage.Close(); err != nil {
		firstErr = err
	}
	if err := e.index.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.writerLock.Release(); err != nil && firstErr == nil {
		firstErr = err
	}

	e.log.Infow("engine closed", "dataDir", e.opts.DataDir)
	return firstErr
}
