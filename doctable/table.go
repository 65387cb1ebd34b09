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


package doctable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/varint"
	"github.com/viewfinderco/viewfinder-sub006/core"
	"github.com/viewfinderco/viewfinder-sub006/index"
	"github.com/viewfinderco/viewfinder-sub006/storage"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

const docRecordPrefix = "doc:"

// progressInterval is how many records pass between reindex progress logs.
const progressInterval = 100

// Record is one stored document. Keys holds the posting keys the index
// last wrote for it; the table hands them back to the index on update and
// delete.
type Record struct {
	Text    string
	SortKey []byte
	Keys    core.StoredKeys
}

// Table stores documents and keeps one full-text index in sync with them.
type Table struct {
	backend *badger.Backend
	idx     *index.Index
	logger  *slog.Logger
}

// NewTable creates a document table bound to an index. Both must share the
// backend so a save is one atomic transaction.
func NewTable(backend *badger.Backend, idx *index.Index) *Table {
	return &Table{
		backend: backend,
		idx:     idx,
		logger:  slog.Default(),
	}
}

func docKey(id string) []byte {
	return []byte(docRecordPrefix + id)
}

// SaveContent stores text under a content-derived id with a newest-first
// sort key and returns the id.
func (t *Table) SaveContent(text string) (string, error) {
	id := core.DocIDFromContent(text)
	sortKey := core.SortKeyFromSequence(^uint64(time.Now().UnixMicro()))
	return id, t.Save(id, text, sortKey)
}

// Save stores a document and replaces its postings in one transaction.
// Saving an existing id reindexes it.
func (t *Table) Save(id, text string, sortKey []byte) error {
	return t.backend.Update(func(tx *badger.Txn) error {
		return t.saveTx(tx, id, text, sortKey)
	})
}

func (t *Table) saveTx(tx *badger.Txn, id, text string, sortKey []byte) error {
	keys := core.StoredKeys{}
	if old, err := t.getTx(tx, id); err == nil {
		keys = old.Keys
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	pos := 0
	terms := index.ParseIndexTerms(text, &pos)
	if err := t.idx.UpdateIndex(tx, terms, []byte(id), sortKey, &keys); err != nil {
		return err
	}

	record := &Record{Text: text, SortKey: sortKey, Keys: keys}
	return tx.Set(docKey(id), marshalRecord(record))
}

// Delete removes a document and all of its postings.
// Returns storage.ErrNotFound if the id is unknown.
func (t *Table) Delete(id string) error {
	return t.backend.Update(func(tx *badger.Txn) error {
		record, err := t.getTx(tx, id)
		if err != nil {
			return err
		}
		if err := t.idx.RemoveTerms(tx, &record.Keys); err != nil {
			return err
		}
		return tx.Delete(docKey(id))
	})
}

// Get retrieves a document by id.
// Returns storage.ErrNotFound if the id is unknown.
func (t *Table) Get(id string) (*Record, error) {
	var record *Record
	err := t.backend.View(func(tx *badgerdb.Txn) error {
		var err error
		record, err = t.getTxRead(tx, id)
		return err
	})
	return record, err
}

func (t *Table) getTx(tx *badger.Txn, id string) (*Record, error) {
	return readRecord(tx.Txn, id)
}

func (t *Table) getTxRead(tx *badgerdb.Txn, id string) (*Record, error) {
	return readRecord(tx, id)
}

func readRecord(tx *badgerdb.Txn, id string) (*Record, error) {
	item, err := tx.Get(docKey(id))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record *Record
	err = item.Value(func(val []byte) error {
		var parseErr error
		record, parseErr = unmarshalRecord(val)
		return parseErr
	})
	return record, err
}

// ForEach calls fn for every stored document in id order. Unreadable
// records are logged and skipped.
func (t *Table) ForEach(fn func(id string, record *Record) error) error {
	return t.backend.View(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(docRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			id := string(item.Key()[len(docRecordPrefix):])

			var record *Record
			err := item.Value(func(val []byte) error {
				var parseErr error
				record, parseErr = unmarshalRecord(val)
				return parseErr
			})
			if err != nil {
				t.logger.Warn("skipping unreadable document record", "id", id, "err", err)
				continue
			}
			if err := fn(id, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reindex re-tokenizes and re-saves every document, rebuilding its
// postings. Useful after normalization rules change. Context cancellation
// is checked between documents; progress is logged periodically.
func (t *Table) Reindex(ctx context.Context) (int, error) {
	type doc struct {
		id      string
		text    string
		sortKey []byte
	}
	var docs []doc
	err := t.ForEach(func(id string, record *Record) error {
		docs = append(docs, doc{id: id, text: record.Text, sortKey: record.SortKey})
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i, d := range docs {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}
		if err := t.Save(d.id, d.text, d.sortKey); err != nil {
			return i, fmt.Errorf("reindex %s: %w", d.id, err)
		}
		if (i+1)%progressInterval == 0 {
			t.logger.Info("reindex progress", "done", i+1, "total", len(docs))
		}
	}
	return len(docs), nil
}

func marshalRecord(record *Record) []byte {
	keysData := storage.MarshalStoredKeys(record.Keys)
	size := varint.SizeInt(len(record.Text)) + len(record.Text) +
		varint.SizeInt(len(record.SortKey)) + len(record.SortKey) +
		len(keysData)
	buf := make([]byte, size)
	n := varint.MarshalInt(len(record.Text), buf)
	n += copy(buf[n:], record.Text)
	n += varint.MarshalInt(len(record.SortKey), buf[n:])
	n += copy(buf[n:], record.SortKey)
	copy(buf[n:], keysData)
	return buf
}

func unmarshalRecord(data []byte) (*Record, error) {
	textLen, n, err := varint.UnmarshalInt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document text length: %w", storage.ErrSerializationFailed, err)
	}
	if textLen < 0 || n+textLen > len(data) {
		return nil, fmt.Errorf("%w: document text", storage.ErrTruncatedData)
	}
	text := string(data[n : n+textLen])
	n += textLen

	sortLen, m, err := varint.UnmarshalInt(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: document sort key length: %w", storage.ErrSerializationFailed, err)
	}
	n += m
	if sortLen < 0 || n+sortLen > len(data) {
		return nil, fmt.Errorf("%w: document sort key", storage.ErrTruncatedData)
	}
	sortKey := make([]byte, sortLen)
	copy(sortKey, data[n:n+sortLen])
	n += sortLen

	keys, err := storage.UnmarshalStoredKeys(data[n:])
	if err != nil {
		return nil, err
	}
	return &Record{Text: text, SortKey: sortKey, Keys: keys}, nil
}
