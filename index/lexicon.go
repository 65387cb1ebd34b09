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
	"errors"
	"log/slog"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/viewfinderco/viewfinder-sub006/core"
	"github.com/viewfinderco/viewfinder-sub006/storage"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

const defaultLexiconCacheSize = 4096

// lexicon maintains the durable (index term, raw term) -> token id mapping
// of one named index, with a bounded in-process cache.
//
// Token id assignment happens in its own immediately-committed transaction,
// never inside a caller's transaction: ids must be append-only and globally
// visible the moment they are handed out, even if the enclosing caller
// transaction later aborts.
type lexicon struct {
	backend *badger.Backend
	keys    keySet
	logger  *slog.Logger

	mu       sync.Mutex
	cache    map[cachedTerm]core.TokenID
	cacheCap int
}

type cachedTerm struct {
	indexTerm string
	rawTerm   string
}

// lexiconEntry is one parsed lexicon record.
type lexiconEntry struct {
	indexTerm string
	rawTerm   string
	tokenID   core.TokenID
	hitCount  int64
}

func (e lexiconEntry) display() string {
	if e.rawTerm != "" {
		return e.rawTerm
	}
	return e.indexTerm
}

func newLexicon(backend *badger.Backend, keys keySet, cacheCap int, logger *slog.Logger) *lexicon {
	if cacheCap <= 0 {
		cacheCap = defaultLexiconCacheSize
	}
	return &lexicon{
		backend:  backend,
		keys:     keys,
		logger:   logger,
		cache:    make(map[cachedTerm]core.TokenID),
		cacheCap: cacheCap,
	}
}

// tokenID resolves or assigns the token id for a term.
func (l *lexicon) tokenID(term core.IndexedTerm) (core.TokenID, error) {
	if term.IndexTerm == "" {
		return 0, core.ErrEmptyTerm
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cacheKey := cachedTerm{indexTerm: term.IndexTerm, rawTerm: term.RawTerm}
	if id, ok := l.cache[cacheKey]; ok {
		return id, nil
	}

	var id core.TokenID
	err := l.backend.Update(func(tx *badger.Txn) error {
		var err error
		id, err = l.resolveOrAssign(tx, term.IndexTerm, term.RawTerm)
		return err
	})
	if err != nil {
		return 0, err
	}

	// The cache is an optimization only. On overflow the whole map is
	// dropped rather than evicted piecemeal; a cold cache just costs one
	// extra store round-trip per term.
	if len(l.cache) >= l.cacheCap {
		clear(l.cache)
	}
	l.cache[cacheKey] = id
	return id, nil
}

// resolveOrAssign reads an existing lexicon entry or assigns the next token
// id, persisting the counter, the reverse mapping, and the new entry.
func (l *lexicon) resolveOrAssign(tx *badger.Txn, indexTerm, rawTerm string) (core.TokenID, error) {
	key := l.keys.lexiconKey(indexTerm, rawTerm)

	item, err := tx.Get(key)
	if err == nil {
		var id core.TokenID
		err = item.Value(func(val []byte) error {
			var parseErr error
			id, _, parseErr = storage.UnmarshalLexiconEntry(val)
			return parseErr
		})
		if err == nil {
			return id, nil
		}
		// Fall through and reassign only if the stored entry is
		// unreadable; the id space stays append-only regardless.
		l.logger.Warn("unreadable lexicon entry, reassigning token id",
			"indexTerm", indexTerm, "err", err)
	} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
		return 0, err
	}

	next, err := l.nextID(tx)
	if err != nil {
		return 0, err
	}
	id := core.TokenID(next)

	if err := tx.Set(l.keys.metaNextIDKey(), storage.MarshalCounter(next+1)); err != nil {
		return 0, err
	}
	if err := tx.Set(l.keys.reverseKey(id), key); err != nil {
		return 0, err
	}
	if err := tx.Set(key, storage.MarshalLexiconEntry(id, 0)); err != nil {
		return 0, err
	}
	return id, nil
}

func (l *lexicon) nextID(tx *badger.Txn) (int64, error) {
	item, err := tx.Get(l.keys.metaNextIDKey())
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var next int64
	err = item.Value(func(val []byte) error {
		var parseErr error
		next, parseErr = storage.UnmarshalCounter(val)
		return parseErr
	})
	return next, err
}

// entriesWithPrefix returns every lexicon entry whose index term starts
// with the given prefix, in key order. Malformed entries are logged and
// skipped.
func (l *lexicon) entriesWithPrefix(tx *badgerdb.Txn, prefix []byte) []lexiconEntry {
	var entries []lexiconEntry

	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		indexTerm, rawTerm, err := l.keys.parseLexiconKey(item.Key())
		if err != nil {
			l.logger.Warn("skipping malformed lexicon key", "key", item.KeyCopy(nil), "err", err)
			continue
		}
		entry := lexiconEntry{indexTerm: indexTerm, rawTerm: rawTerm}
		err = item.Value(func(val []byte) error {
			var parseErr error
			entry.tokenID, entry.hitCount, parseErr = storage.UnmarshalLexiconEntry(val)
			return parseErr
		})
		if err != nil {
			l.logger.Warn("skipping unreadable lexicon entry", "indexTerm", indexTerm, "err", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
