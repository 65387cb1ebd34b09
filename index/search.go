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
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

// Search compiles a query tree into a result iterator over one or more
// indices sharing a backend. Term and Prefix leaves fan out across every
// index and are unioned; And/Or nodes combine their compiled children.
//
// The returned iterator reads from a snapshot taken at call time and must
// be closed to release it. An empty And compiles to the null iterator;
// callers that want "empty query matches everything" special-case that
// before calling.
func Search(backend *badger.Backend, query Node, indexes ...*Index) (ResultIterator, error) {
	if len(indexes) == 0 {
		return NewNullIterator(), nil
	}

	tx := backend.NewReadTxn()
	b := &iteratorBuilder{
		tx:      tx,
		indexes: indexes,
		logger:  indexes[0].logger,
	}
	return &searchIterator{ResultIterator: b.build(query), tx: tx}, nil
}

// searchIterator ties the compiled iterator tree to the snapshot
// transaction backing its range scans.
type searchIterator struct {
	ResultIterator
	tx *badgerdb.Txn
}

func (s *searchIterator) Close() error {
	err := s.ResultIterator.Close()
	s.tx.Discard()
	return err
}

// iteratorBuilder compiles AST nodes against a snapshot transaction.
type iteratorBuilder struct {
	tx      *badgerdb.Txn
	indexes []*Index
	logger  *slog.Logger
}

func (b *iteratorBuilder) build(n Node) ResultIterator {
	v := &buildVisitor{b: b}
	Walk(n, v)
	return v.result
}

// buildVisitor implements Visitor to compile one node.
type buildVisitor struct {
	b      *iteratorBuilder
	result ResultIterator
}

func (v *buildVisitor) VisitTerm(q *TermQuery) {
	v.result = v.b.leaf(q.Text, false)
}

func (v *buildVisitor) VisitPrefix(q *PrefixQuery) {
	v.result = v.b.leaf(q.Text, true)
}

func (v *buildVisitor) VisitAnd(q *AndQuery) {
	v.result = NewAndIterator(v.b.buildChildren(q.Children))
}

func (v *buildVisitor) VisitOr(q *OrQuery) {
	v.result = NewOrIterator(v.b.buildChildren(q.Children))
}

func (b *iteratorBuilder) buildChildren(nodes []Node) []ResultIterator {
	children := make([]ResultIterator, 0, len(nodes))
	for _, n := range nodes {
		children = append(children, b.build(n))
	}
	return children
}

// leaf resolves a Term or Prefix leaf to the union of token iterators for
// every matching lexicon entry in every queried index.
func (b *iteratorBuilder) leaf(text string, prefixMatch bool) ResultIterator {
	if text == "" {
		return NewNullIterator()
	}

	var children []ResultIterator
	for _, ix := range b.indexes {
		var scanPrefix []byte
		if prefixMatch {
			scanPrefix = ix.keys.lexiconScanPrefix(text)
		} else {
			scanPrefix = ix.keys.lexiconTermPrefix(text)
		}
		for _, entry := range ix.lex.entriesWithPrefix(b.tx, scanPrefix) {
			rawPrefix := ""
			if prefixMatch {
				rawPrefix = findRawPrefix(text, entry.display())
			}
			children = append(children,
				newTokenIterator(b.tx, ix.keys, entry.tokenID, entry.display(), rawPrefix, b.logger))
		}
	}
	return NewOrIterator(children)
}
