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
	"slices"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/viewfinderco/viewfinder-sub006/core"
	"golang.org/x/text/cases"
)

// GetSuggestions returns autocomplete candidates for an index-term prefix,
// ordered by descending posting count (ties broken by term). Entries whose
// hit count is zero are omitted; counts are eventually consistent, refreshed
// in the background after mutations. limit <= 0 returns all candidates.
func (ix *Index) GetSuggestions(prefix string, limit int) ([]core.Suggestion, error) {
	fold := cases.Fold()
	var suggestions []core.Suggestion

	err := ix.backend.View(func(tx *badgerdb.Txn) error {
		scanPrefix := ix.keys.lexiconScanPrefix(fold.String(prefix))
		for _, entry := range ix.lex.entriesWithPrefix(tx, scanPrefix) {
			if entry.hitCount == 0 {
				continue
			}
			suggestions = append(suggestions, core.Suggestion{
				Term:  entry.display(),
				Count: entry.hitCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(suggestions, func(a, b core.Suggestion) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Term, b.Term)
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
