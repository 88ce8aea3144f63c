// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (the directory) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for persistent key/value storage in Go applications.
package ignite

import (
	"context"

	"github.com/iamNilotpal/ignite/internal/engine"
	"github.com/iamNilotpal/ignite/pkg/logger"
	"github.com/iamNilotpal/ignite/pkg/options"
)

// Represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// Creates and initializes a new Ignite DB instance.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	defaultOpts := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	// Create a new internal engine with the initialized logger.
	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The operation is durable and will be written to the append-only log.
func (i *Instance) Set(key string, value []byte) error {
	return i.engine.Put([]byte(key), value)
}

// Get retrieves the value associated with the given key.
func (i *Instance) Get(key string) ([]byte, error) {
	return i.engine.Ask([]byte(key))
}

// Delete removes a key-value pair from the database by appending a
// tombstone record. The underlying space is reclaimed the next time
// Compact runs.
func (i *Instance) Delete(key string) error {
	return i.engine.Remove([]byte(key))
}

// Compact rewrites every live key into a fresh set of segments and
// discards the sealed files that become unreachable as a result.
func (i *Instance) Compact() (int, error) {
	return i.engine.Compact()
}

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources: open file handles, the in-memory index, and the
// writer lock.
func (i *Instance) Close() error {
	return i.engine.Close()
}
