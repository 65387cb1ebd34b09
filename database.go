// Copyright 2025 Viewfinder Co.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fulltext ties the full-text index packages together behind a
// Database facade: one ordered key-value store, any number of named
// indices, and a shared worker pool dispatching background statistics
// refreshes.
package fulltext

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/viewfinderco/viewfinder-sub006/index"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

// Database owns the storage backend and the named full-text indices
// attached to it.
type Database struct {
	backend *badger.Backend
	pool    *ants.Pool
	logger  *slog.Logger

	cacheSize int

	mu      sync.Mutex
	indexes map[string]*index.Index
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory  bool
	poolSize  int
	cacheSize int
	logger    *slog.Logger
}

// WithInMemory opens the backing store in memory, for tests and tooling.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithPoolSize sets the background worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		if size >= 1 {
			o.poolSize = size
		}
	}
}

// WithLexiconCacheSize bounds each index's in-process term cache.
func WithLexiconCacheSize(size int) DatabaseOption {
	return func(o *databaseOptions) {
		o.cacheSize = size
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens (or creates) a full-text database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(options.poolSize)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		pool:      pool,
		logger:    options.logger,
		cacheSize: options.cacheSize,
		indexes:   make(map[string]*index.Index),
	}, nil
}

// Backend exposes the underlying storage backend so collaborators can run
// their own record mutations in the same transaction as index updates.
func (db *Database) Backend() *badger.Backend {
	return db.backend
}

// Index returns the named index, opening it on first use.
func (db *Database) Index(name string) (*index.Index, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if ix, ok := db.indexes[name]; ok {
		return ix, nil
	}
	ix, err := index.New(db.backend, name,
		index.WithLogger(db.logger),
		index.WithLexiconCacheSize(db.cacheSize),
		index.WithBackgroundSubmit(db.pool.Submit),
	)
	if err != nil {
		return nil, err
	}
	db.indexes[name] = ix
	return ix, nil
}

// Search parses a raw query and compiles it against the named indices.
// The caller must Close the returned iterator.
func (db *Database) Search(query string, opts index.ParseOptions, names ...string) (index.ResultIterator, error) {
	return db.SearchAST(index.ParseQuery(query, opts), names...)
}

// SearchAST compiles a prebuilt query tree against the named indices.
func (db *Database) SearchAST(query index.Node, names ...string) (index.ResultIterator, error) {
	indexes := make([]*index.Index, 0, len(names))
	for _, name := range names {
		ix, err := db.Index(name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, ix)
	}
	return index.Search(db.backend, query, indexes...)
}

// Drain blocks until every index's background statistics work is idle.
func (db *Database) Drain() {
	db.mu.Lock()
	indexes := make([]*index.Index, 0, len(db.indexes))
	for _, ix := range db.indexes {
		indexes = append(indexes, ix)
	}
	db.mu.Unlock()

	for _, ix := range indexes {
		ix.Drain()
	}
}

// Close drains background work and closes the store.
func (db *Database) Close() error {
	db.Drain()
	db.pool.Release()
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
