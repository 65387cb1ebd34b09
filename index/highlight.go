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
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// ErrNoFilterTerms indicates BuildFilterRegex was called without terms.
var ErrNoFilterTerms = errors.New("no filter terms")

// BuildFilterRegex compiles a case-insensitive, boundary-anchored
// alternation over the supplied raw terms, for highlighting matches in
// display text. Longer terms are tried first to approximate longest-match
// semantics; the match boundary accepts start-of-text or any
// non-alphanumeric rune, so punctuation inside raw terms still anchors
// correctly. Capture group 1 holds the matched term.
func BuildFilterRegex(rawTerms []string) (*regexp.Regexp, error) {
	if len(rawTerms) == 0 {
		return nil, ErrNoFilterTerms
	}

	terms := slices.Clone(rawTerms)
	slices.SortFunc(terms, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	terms = slices.Compact(terms)

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	if len(quoted) == 0 {
		return nil, ErrNoFilterTerms
	}

	pattern := `(?i)(?:\A|[^\p{L}\p{N}])(` + strings.Join(quoted, "|") + `)`
	return regexp.Compile(pattern)
}

// findRawPrefix returns the portion of a raw term matching an index-side
// prefix query: raw runes are copied until the count of alphanumeric runes
// copied equals the count of alphanumeric runes in the index prefix. This
// keeps highlighting aligned when normalization added or removed
// non-alphanumeric characters.
func findRawPrefix(indexPrefix, rawTerm string) string {
	want := 0
	for _, r := range indexPrefix {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			want++
		}
	}
	if want == 0 {
		return ""
	}

	var b strings.Builder
	copied := 0
	for _, r := range rawTerm {
		b.WriteRune(r)
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			copied++
			if copied == want {
				return b.String()
			}
		}
	}
	return rawTerm
}
