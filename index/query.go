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
	"strings"

	"golang.org/x/text/cases"
)

// Node is a query AST node: TermQuery, PrefixQuery, AndQuery, or OrQuery.
type Node interface {
	accept(v Visitor)
}

// TermQuery matches documents containing an exact index term.
type TermQuery struct {
	Text string
}

// PrefixQuery matches documents containing any index term starting with
// Text.
type PrefixQuery struct {
	Text string
}

// AndQuery matches documents matched by every child.
type AndQuery struct {
	Children []Node
}

// OrQuery matches documents matched by at least one child.
type OrQuery struct {
	Children []Node
}

func (q *TermQuery) accept(v Visitor)   { v.VisitTerm(q) }
func (q *PrefixQuery) accept(v Visitor) { v.VisitPrefix(q) }
func (q *AndQuery) accept(v Visitor)    { v.VisitAnd(q) }
func (q *OrQuery) accept(v Visitor)     { v.VisitOr(q) }

// Visitor dispatches on query node kind. It backs both iterator building
// and term collection so the tree walk is written once.
type Visitor interface {
	VisitTerm(q *TermQuery)
	VisitPrefix(q *PrefixQuery)
	VisitAnd(q *AndQuery)
	VisitOr(q *OrQuery)
}

// Walk dispatches a single node to the visitor. Visitors recurse into
// And/Or children themselves.
func Walk(n Node, v Visitor) {
	n.accept(v)
}

// ParseOptions controls query parsing.
type ParseOptions struct {
	// MatchPrefix wraps each query word as a prefix match rather than an
	// exact term match (autocomplete-style queries).
	MatchPrefix bool
}

// ParseQuery tokenizes a raw user query into an implicit AND of Term or
// Prefix leaves: words are split on Unicode whitespace and case-folded.
//
// An empty query yields an And with no children. Whether that means "match
// everything" or "match nothing" is the caller's choice; the compiled
// iterator for an empty And yields nothing.
func ParseQuery(query string, opts ParseOptions) *AndQuery {
	fold := cases.Fold()
	and := &AndQuery{}
	for _, word := range strings.Fields(query) {
		text := fold.String(word)
		if opts.MatchPrefix {
			and.Children = append(and.Children, &PrefixQuery{Text: text})
		} else {
			and.Children = append(and.Children, &TermQuery{Text: text})
		}
	}
	return and
}

// termCollector gathers the Term/Prefix texts of a query tree, for
// highlighting the query side of a match.
type termCollector struct {
	terms map[string]struct{}
}

func (c *termCollector) VisitTerm(q *TermQuery)     { c.terms[q.Text] = struct{}{} }
func (c *termCollector) VisitPrefix(q *PrefixQuery) { c.terms[q.Text] = struct{}{} }
func (c *termCollector) VisitAnd(q *AndQuery) {
	for _, child := range q.Children {
		Walk(child, c)
	}
}
func (c *termCollector) VisitOr(q *OrQuery) {
	for _, child := range q.Children {
		Walk(child, c)
	}
}

// CollectQueryTerms returns the set of leaf term texts in a query tree.
func CollectQueryTerms(n Node) map[string]struct{} {
	c := &termCollector{terms: map[string]struct{}{}}
	Walk(n, c)
	return c.terms
}
