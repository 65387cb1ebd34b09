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
	"container/heap"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/viewfinderco/viewfinder-sub006/core"
)

// ResultIterator is a lazy, sorted stream of (document id, sort key) pairs.
//
// Streams are ordered ascending bytewise by (sort key, document id); sort
// keys are expected to encode "better first" so ascending byte order is the
// desired presentation order. Iterators are pull-based: the caller stops
// consuming to terminate early, and must Close the root iterator to release
// the underlying snapshot.
type ResultIterator interface {
	// Valid reports whether the iterator is positioned on a result.
	Valid() bool
	// Next advances to the next distinct document.
	Next()
	// DocID returns the current document id. Only valid while Valid().
	DocID() []byte
	// SortKey returns the current sort key. Only valid while Valid().
	SortKey() []byte
	// Seek advances the iterator while it is positioned before
	// (sortKey, docID).
	Seek(sortKey, docID []byte)
	// RawTerms adds the raw terms responsible for the current match to
	// the set, for highlighting.
	RawTerms(terms map[string]struct{})
	// Close releases iterator resources, including owned children.
	Close() error
}

// comparePos orders stream positions by (sort key, document id), ascending
// bytewise.
func comparePos(aSort, aDoc, bSort, bDoc []byte) int {
	if c := bytes.Compare(aSort, bSort); c != 0 {
		return c
	}
	return bytes.Compare(aDoc, bDoc)
}

// nullIterator is the empty stream.
type nullIterator struct{}

func (nullIterator) Valid() bool                        { return false }
func (nullIterator) Next()                              {}
func (nullIterator) DocID() []byte                      { return nil }
func (nullIterator) SortKey() []byte                    { return nil }
func (nullIterator) Seek(sortKey, docID []byte)         {}
func (nullIterator) RawTerms(terms map[string]struct{}) {}
func (nullIterator) Close() error                       { return nil }

// NewNullIterator returns an iterator that is never valid.
func NewNullIterator() ResultIterator {
	return nullIterator{}
}

// tokenIterator streams the postings of a single resolved token id via a
// prefix scan on a snapshot transaction. Unparseable posting keys are
// logged and skipped so one corrupt key cannot take down a query.
type tokenIterator struct {
	iter   *badgerdb.Iterator
	keys   keySet
	logger *slog.Logger

	// rawTerm is the display term of the token's lexicon entry; rawPrefix,
	// when set, is the portion of the raw term matching a prefix query.
	rawTerm   string
	rawPrefix string

	prefix  []byte
	sortKey []byte
	docID   []byte
	valid   bool
}

func newTokenIterator(tx *badgerdb.Txn, keys keySet, tokenID core.TokenID, rawTerm, rawPrefix string, logger *slog.Logger) *tokenIterator {
	prefix := keys.tokenPostingPrefix(tokenID)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := &tokenIterator{
		iter:      tx.NewIterator(opts),
		keys:      keys,
		logger:    logger,
		rawTerm:   rawTerm,
		rawPrefix: rawPrefix,
		prefix:    prefix,
	}
	it.iter.Rewind()
	it.settle()
	return it
}

// settle parses the current posting key, skipping past malformed ones.
func (it *tokenIterator) settle() {
	for ; it.iter.Valid(); it.iter.Next() {
		key := it.iter.Item().Key()
		_, sortKey, docID, err := it.keys.parsePostingKey(key)
		if err != nil {
			it.logger.Warn("skipping malformed posting key", "key", it.iter.Item().KeyCopy(nil), "err", err)
			continue
		}
		// Copy out: the iterator owns the key buffer only until Next.
		it.sortKey = append(it.sortKey[:0], sortKey...)
		it.docID = append(it.docID[:0], docID...)
		it.valid = true
		return
	}
	it.valid = false
}

func (it *tokenIterator) Valid() bool     { return it.valid }
func (it *tokenIterator) DocID() []byte   { return it.docID }
func (it *tokenIterator) SortKey() []byte { return it.sortKey }

func (it *tokenIterator) Next() {
	if !it.valid {
		return
	}
	it.iter.Next()
	it.settle()
}

func (it *tokenIterator) Seek(sortKey, docID []byte) {
	if !it.valid || comparePos(it.sortKey, it.docID, sortKey, docID) >= 0 {
		return
	}
	target := make([]byte, 0, len(it.prefix)+len(sortKey)+len(docID)+1)
	target = append(target, it.prefix...)
	target = append(target, sortKey...)
	target = append(target, core.Sep)
	target = append(target, docID...)
	it.iter.Seek(target)
	it.settle()
}

func (it *tokenIterator) RawTerms(terms map[string]struct{}) {
	if !it.valid {
		return
	}
	if it.rawPrefix != "" {
		terms[it.rawPrefix] = struct{}{}
	} else if it.rawTerm != "" {
		terms[it.rawTerm] = struct{}{}
	}
}

func (it *tokenIterator) Close() error {
	it.iter.Close()
	it.valid = false
	return nil
}

// orIterator is an N-way union over child iterators, backed by a min-heap
// ordered by (sort key, document id). Each distinct document id surfaces
// exactly once even when several children are positioned on it.
type orIterator struct {
	children []ResultIterator // all children, for Close
	h        resultHeap
}

// NewOrIterator returns the union of the given iterators. Zero children
// yield the null iterator; a single child is returned unwrapped.
func NewOrIterator(children []ResultIterator) ResultIterator {
	switch len(children) {
	case 0:
		return nullIterator{}
	case 1:
		return children[0]
	}
	or := &orIterator{children: children}
	for _, child := range children {
		if child.Valid() {
			or.h = append(or.h, child)
		}
	}
	heap.Init(&or.h)
	return or
}

func (or *orIterator) Valid() bool { return len(or.h) > 0 }

func (or *orIterator) DocID() []byte {
	if len(or.h) == 0 {
		return nil
	}
	return or.h[0].DocID()
}

func (or *orIterator) SortKey() []byte {
	if len(or.h) == 0 {
		return nil
	}
	return or.h[0].SortKey()
}

func (or *orIterator) Next() {
	if len(or.h) == 0 {
		return
	}
	// Pop every child positioned on the current document so each doc id
	// is surfaced once, then re-push the ones that remain valid.
	current := append([]byte(nil), or.h[0].DocID()...)
	for len(or.h) > 0 && bytes.Equal(or.h[0].DocID(), current) {
		child := heap.Pop(&or.h).(ResultIterator)
		child.Next()
		if child.Valid() {
			heap.Push(&or.h, child)
		}
	}
}

func (or *orIterator) Seek(sortKey, docID []byte) {
	for or.Valid() && comparePos(or.SortKey(), or.DocID(), sortKey, docID) < 0 {
		or.Next()
	}
}

// RawTerms collects from every child currently positioned on the same
// document, not only the heap head, so ties contribute all their
// highlighting terms.
func (or *orIterator) RawTerms(terms map[string]struct{}) {
	if len(or.h) == 0 {
		return
	}
	current := or.h[0].DocID()
	for _, child := range or.h {
		if child.Valid() && bytes.Equal(child.DocID(), current) {
			child.RawTerms(terms)
		}
	}
}

func (or *orIterator) Close() error {
	var firstErr error
	for _, child := range or.children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	or.h = nil
	return firstErr
}

// resultHeap orders iterators by their current (sort key, document id).
type resultHeap []ResultIterator

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool {
	return comparePos(h[i].SortKey(), h[i].DocID(), h[j].SortKey(), h[j].DocID()) < 0
}
func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(ResultIterator))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// andIterator is an N-way intersection. It keeps every child aligned on
// the same (sort key, document id) by repeatedly seeking all children to
// the head child's position; when a child overshoots, the head is sought
// forward to it and the synchronization scan restarts. Each seek strictly
// advances some finite iterator, so the loop terminates with either all
// children aligned or the stream exhausted.
type andIterator struct {
	children []ResultIterator
	valid    bool
}

// NewAndIterator returns the intersection of the given iterators. Zero
// children yield the null iterator; a single child is returned unwrapped.
func NewAndIterator(children []ResultIterator) ResultIterator {
	switch len(children) {
	case 0:
		return nullIterator{}
	case 1:
		return children[0]
	}
	and := &andIterator{children: children}
	and.sync()
	return and
}

func (and *andIterator) sync() {
	head := and.children[0]
	for {
		if !head.Valid() {
			and.valid = false
			return
		}
		overshot := false
		for _, child := range and.children[1:] {
			child.Seek(head.SortKey(), head.DocID())
			if !child.Valid() {
				and.valid = false
				return
			}
			if comparePos(child.SortKey(), child.DocID(), head.SortKey(), head.DocID()) > 0 {
				head.Seek(child.SortKey(), child.DocID())
				overshot = true
				break
			}
		}
		if !overshot {
			and.valid = true
			return
		}
	}
}

func (and *andIterator) Valid() bool { return and.valid }

func (and *andIterator) DocID() []byte {
	if !and.valid {
		return nil
	}
	return and.children[0].DocID()
}

func (and *andIterator) SortKey() []byte {
	if !and.valid {
		return nil
	}
	return and.children[0].SortKey()
}

func (and *andIterator) Next() {
	if !and.valid {
		return
	}
	and.children[0].Next()
	and.sync()
}

func (and *andIterator) Seek(sortKey, docID []byte) {
	if !and.valid {
		return
	}
	and.children[0].Seek(sortKey, docID)
	and.sync()
}

func (and *andIterator) RawTerms(terms map[string]struct{}) {
	if !and.valid {
		return
	}
	for _, child := range and.children {
		child.RawTerms(terms)
	}
}

func (and *andIterator) Close() error {
	var firstErr error
	for _, child := range and.children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	and.valid = false
	return firstErr
}
