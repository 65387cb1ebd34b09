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

// refreshBatchSize bounds the markers handled per transaction so one run
// never holds a huge write set.
const refreshBatchSize = 64

// statsRefresher recomputes per-token hit counts for tokens marked stale
// by posting mutations.
//
// It is a single-flight background task modeled as an {Idle, Running}
// state machine: kick() is an at-least-once trigger (usually a commit
// trigger), run() loops while invalidation markers exist, and drain()
// blocks on the channel observing the Idle transition. The mutex guards
// only the state flags, never the scan/update loop, so refreshing does not
// block foreground mutations.
type statsRefresher struct {
	backend *badger.Backend
	keys    keySet
	submit  func(task func()) error
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	pending bool
	idle    chan struct{} // non-nil while running, closed on Idle
}

func newStatsRefresher(backend *badger.Backend, keys keySet, submit func(task func()) error, logger *slog.Logger) *statsRefresher {
	return &statsRefresher{
		backend: backend,
		keys:    keys,
		submit:  submit,
		logger:  logger,
	}
}

// kick schedules a refresh run if one is not already running. Kicks while
// running set a pending flag so markers committed mid-run are picked up
// before the task goes idle.
func (s *statsRefresher) kick() {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.idle = make(chan struct{})
	s.mu.Unlock()

	if err := s.submit(s.run); err != nil {
		s.logger.Error("failed to dispatch statistics refresher", "err", err)
		s.finish()
	}
}

// drain blocks until the refresher transitions to Idle. Returns
// immediately if it is not running.
func (s *statsRefresher) drain() {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	if idle != nil {
		<-idle
	}
}

func (s *statsRefresher) finish() {
	s.mu.Lock()
	s.running = false
	s.pending = false
	close(s.idle)
	s.idle = nil
	s.mu.Unlock()
}

func (s *statsRefresher) run() {
	for {
		processed, err := s.refreshOnce()
		if err != nil {
			s.logger.Error("statistics refresh failed", "err", err)
			s.finish()
			return
		}
		if processed > 0 {
			continue
		}
		s.mu.Lock()
		if s.pending {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.mu.Unlock()
		s.finish()
		return
	}
}

// refreshOnce handles up to one batch of invalidation markers in a single
// transaction and reports how many it processed.
func (s *statsRefresher) refreshOnce() (int, error) {
	var markers []core.TokenID
	err := s.backend.View(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = s.keys.invalidationScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(markers) < refreshBatchSize; iter.Next() {
			tokenID, err := s.keys.parseInvalidationKey(iter.Item().Key())
			if err != nil {
				s.logger.Warn("skipping malformed invalidation marker",
					"key", iter.Item().KeyCopy(nil), "err", err)
				continue
			}
			markers = append(markers, tokenID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(markers) == 0 {
		return 0, nil
	}

	err = s.backend.Update(func(tx *badger.Txn) error {
		for _, tokenID := range markers {
			if err := s.refreshToken(tx, tokenID); err != nil {
				return err
			}
			if err := tx.Delete(s.keys.invalidationKey(tokenID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(markers), nil
}

// refreshToken recounts one token's postings and stores the count on its
// lexicon entry, found through the reverse mapping. A token with no
// reverse entry is logged and its marker dropped.
func (s *statsRefresher) refreshToken(tx *badger.Txn, tokenID core.TokenID) error {
	item, err := tx.Get(s.keys.reverseKey(tokenID))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		s.logger.Warn("invalidated token has no reverse lexicon entry", "tokenID", int64(tokenID))
		return nil
	}
	if err != nil {
		return err
	}
	lexKey, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}

	count := s.countPostings(tx, tokenID)
	return tx.Set(lexKey, storage.MarshalLexiconEntry(tokenID, count))
}

// countPostings counts postings under one token's prefix.
func (s *statsRefresher) countPostings(tx *badger.Txn, tokenID core.TokenID) int64 {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = s.keys.tokenPostingPrefix(tokenID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var count int64
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}
