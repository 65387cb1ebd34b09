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


// Package storage provides the storage abstraction layer for the full-text
// index.
//
// It defines the shared error taxonomy and the durable value encodings used
// by the index: lexicon entries, the per-index token-id counter, and the
// stored posting-key lists that collaborators keep inside their own records.
// The concrete ordered key-value backend lives in storage/badger.
//
// # Serialization
//
// Durable values are encoded with the MUS format (varint primitives). The
// encodings are deliberately flat: a lexicon entry is a (token id, hit
// count) pair, the counter is a single varint, and a stored-key list is a
// count followed by length-prefixed keys. Malformed values are reported via
// ErrTruncatedData / ErrSerializationFailed and are expected to be skipped,
// not treated as fatal, by readers.
package storage
