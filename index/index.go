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


package index

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/viewfinderco/viewfinder-sub006/core"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

// Index is one named full-text index over an ordered key-value store.
//
// An Index owns no documents: collaborators decide what text to index and
// when, and keep the posting keys the index last wrote for each document
// inside their own records (core.StoredKeys). All keys of one index live
// under its own prefix, so many indices share one store.
type Index struct {
	name    string
	backend *badger.Backend
	keys    keySet
	lex     *lexicon
	stats   *statsRefresher
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	cacheSize int
	submit    func(task func()) error
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLexiconCacheSize bounds the in-process term cache. Default is 4096
// entries; the cache is dropped wholesale when the bound is reached.
func WithLexiconCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithBackgroundSubmit sets the background-work facility used to dispatch
// the statistics refresher. Default runs tasks on a new goroutine.
func WithBackgroundSubmit(submit func(task func()) error) Option {
	return func(o *options) {
		if submit != nil {
			o.submit = submit
		}
	}
}

// New opens the named index on the given backend.
func New(backend *badger.Backend, name string, opts ...Option) (*Index, error) {
	if name == "" {
		return nil, core.ErrEmptyIndexName
	}
	if bytes.IndexByte([]byte(name), core.Sep) >= 0 {
		return nil, fmt.Errorf("%w: index name %q", core.ErrReservedByte, name)
	}

	o := &options{
		logger: slog.Default(),
		submit: func(task func()) error {
			go task()
			return nil
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	keys := newKeySet(name)
	ix := &Index{
		name:    name,
		backend: backend,
		keys:    keys,
		lex:     newLexicon(backend, keys, o.cacheSize, o.logger),
		logger:  o.logger.With("index", name),
	}
	ix.stats = newStatsRefresher(backend, keys, o.submit, ix.logger)
	return ix, nil
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.name
}

// Drain blocks until the statistics refresher is idle. Intended for tests
// and orderly shutdown.
func (ix *Index) Drain() {
	ix.stats.drain()
}

// UpdateIndex atomically replaces a document's postings with the given
// terms inside the caller's transaction.
//
// The previously stored keys are removed first, then one posting per term
// is written and recorded in stored. Sort keys containing the reserved
// separator byte are rejected before anything is written. Affected token
// ids are marked stale; a commit trigger schedules the statistics
// refresher once the enclosing transaction commits.
func (ix *Index) UpdateIndex(tx *badger.Txn, terms []core.IndexedTerm, docID, sortKey []byte, stored *core.StoredKeys) error {
	if err := core.ValidateSortKey(sortKey); err != nil {
		return err
	}
	if err := core.ValidateDocID(docID); err != nil {
		return err
	}

	if err := ix.RemoveTerms(tx, stored); err != nil {
		return err
	}

	for _, term := range terms {
		tokenID, err := ix.lex.tokenID(term)
		if err != nil {
			return err
		}
		key := ix.keys.postingKey(tokenID, sortKey, docID)
		if err := tx.Set(key, nil); err != nil {
			return err
		}
		*stored = append(*stored, key)
		if err := ix.invalidate(tx, tokenID); err != nil {
			return err
		}
	}

	if len(terms) > 0 {
		ix.scheduleRefresh(tx)
	}
	return nil
}

// RemoveTerms deletes every posting key previously recorded for a document
// and clears the stored list. Keys that cannot be parsed (corrupt or
// unknown legacy layouts) are still deleted but logged and skipped for
// statistics purposes.
func (ix *Index) RemoveTerms(tx *badger.Txn, stored *core.StoredKeys) error {
	if len(*stored) == 0 {
		return nil
	}

	invalidated := false
	for _, key := range *stored {
		if err := tx.Delete(key); err != nil {
			return err
		}
		tokenID, _, _, err := ix.keys.parsePostingKey(key)
		if err != nil {
			ix.logger.Warn("removing unparseable posting key without statistics adjustment",
				"key", key, "err", err)
			continue
		}
		if err := ix.invalidate(tx, tokenID); err != nil {
			return err
		}
		invalidated = true
	}
	*stored = (*stored)[:0]

	if invalidated {
		ix.scheduleRefresh(tx)
	}
	return nil
}

// Update is a convenience wrapper running UpdateIndex in its own
// transaction.
func (ix *Index) Update(terms []core.IndexedTerm, docID, sortKey []byte, stored *core.StoredKeys) error {
	return ix.backend.Update(func(tx *badger.Txn) error {
		return ix.UpdateIndex(tx, terms, docID, sortKey, stored)
	})
}

// Remove is a convenience wrapper running RemoveTerms in its own
// transaction.
func (ix *Index) Remove(stored *core.StoredKeys) error {
	return ix.backend.Update(func(tx *badger.Txn) error {
		return ix.RemoveTerms(tx, stored)
	})
}

func (ix *Index) invalidate(tx *badger.Txn, tokenID core.TokenID) error {
	return tx.Set(ix.keys.invalidationKey(tokenID), nil)
}

// scheduleRefresh arranges for the statistics refresher to run after the
// enclosing transaction commits. At-least-once: running with no pending
// markers is a harmless no-op.
func (ix *Index) scheduleRefresh(tx *badger.Txn) {
	tx.OnCommit(ix.stats.kick)
}
