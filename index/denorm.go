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
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/viewfinderco/viewfinder-sub006/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseIndexTerms denormalizes a phrase into indexed terms.
//
// Each UAX#29 word produces up to four variants sharing one position: the
// case-folded word itself, a punctuation-stripped form, an ASCII
// transliteration, and a punctuation-stripped ASCII transliteration. The
// position counter is shared by the caller across successive phrases of one
// document and is incremented once per word.
func ParseIndexTerms(phrase string, pos *int) []core.IndexedTerm {
	fold := cases.Fold()
	var terms []core.IndexedTerm

	tokens := words.FromString(phrase)
	for tokens.Next() {
		word := tokens.Value()
		if !isWordToken(word) {
			continue
		}
		terms = appendWordVariants(terms, fold.String(word), word, *pos)
		*pos++
	}
	return terms
}

// AddVerbatimToken produces a single exact-match indexed term for a
// synthetic, non-linguistic token (for example an encoded user-id marker).
// The token bypasses normalization entirely and consumes one position.
func AddVerbatimToken(token string, pos *int) core.IndexedTerm {
	term := core.IndexedTerm{IndexTerm: token, Position: *pos}
	*pos++
	return term
}

// appendWordVariants emits the denormalized variants of one word. folded is
// the case-folded form, raw the original word as written.
func appendWordVariants(terms []core.IndexedTerm, folded, raw string, pos int) []core.IndexedTerm {
	emitted := map[string]bool{}
	emit := func(indexTerm string) []core.IndexedTerm {
		if indexTerm == "" || emitted[indexTerm] {
			return terms
		}
		emitted[indexTerm] = true
		rawTerm := raw
		if rawTerm == indexTerm {
			rawTerm = ""
		}
		return append(terms, core.IndexedTerm{IndexTerm: indexTerm, RawTerm: rawTerm, Position: pos})
	}

	terms = emit(folded)

	stripped := stripNonAlnum(folded)
	if stripped != folded {
		terms = emit(stripped)
	}

	ascii := asciiFold(folded)
	if ascii != folded {
		terms = emit(ascii)
		if strippedASCII := stripNonAlnum(ascii); strippedASCII != stripped {
			terms = emit(strippedASCII)
		}
	}
	return terms
}

// isWordToken reports whether a UAX#29 segment carries at least one letter
// or number. Whitespace and punctuation runs are dropped.
func isWordToken(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// stripNonAlnum removes every rune that is not a letter or a number.
func stripNonAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, s)
}

// asciiFold transliterates a term to a best-effort ASCII form: canonical
// decomposition, removal of combining marks, then removal of any remaining
// non-ASCII or whitespace runes. Returns the input unchanged on transform
// failure so the original variant is still indexed.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}
