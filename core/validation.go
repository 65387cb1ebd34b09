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


package core

import (
	"bytes"
	"fmt"
)

// ValidateSortKey validates a caller-supplied sort key.
//
// Validation rules:
//   - must not be empty
//   - must not contain the reserved separator byte
//
// The separator check is the fail-fast guard required before any posting is
// written: a sort key containing Sep would corrupt the posting key layout.
func ValidateSortKey(sortKey []byte) error {
	if len(sortKey) == 0 {
		return ErrEmptySortKey
	}
	if bytes.IndexByte(sortKey, Sep) >= 0 {
		return fmt.Errorf("%w: sort key %q", ErrReservedByte, sortKey)
	}
	return nil
}

// ValidateDocID validates a caller-supplied document id.
func ValidateDocID(docID []byte) error {
	if len(docID) == 0 {
		return ErrEmptyDocID
	}
	if bytes.IndexByte(docID, Sep) >= 0 {
		return fmt.Errorf("%w: document id %q", ErrReservedByte, docID)
	}
	return nil
}
