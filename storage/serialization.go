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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/viewfinderco/viewfinder-sub006/core"
)

// MarshalLexiconEntry serializes a lexicon entry (token id, hit count).
func MarshalLexiconEntry(tokenID core.TokenID, hitCount int64) []byte {
	buf := make([]byte, varint.SizeInt64(int64(tokenID))+varint.SizeInt64(hitCount))
	n := varint.MarshalInt64(int64(tokenID), buf)
	varint.MarshalInt64(hitCount, buf[n:])
	return buf
}

// UnmarshalLexiconEntry deserializes a lexicon entry.
func UnmarshalLexiconEntry(data []byte) (core.TokenID, int64, error) {
	tokenID, n, err := varint.UnmarshalInt64(data)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lexicon token id: %w", ErrSerializationFailed, err)
	}
	hitCount, _, err := varint.UnmarshalInt64(data[n:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lexicon hit count: %w", ErrSerializationFailed, err)
	}
	return core.TokenID(tokenID), hitCount, nil
}

// MarshalCounter serializes the per-index token-id counter.
func MarshalCounter(next int64) []byte {
	buf := make([]byte, varint.SizeInt64(next))
	varint.MarshalInt64(next, buf)
	return buf
}

// UnmarshalCounter deserializes the per-index token-id counter.
func UnmarshalCounter(data []byte) (int64, error) {
	next, _, err := varint.UnmarshalInt64(data)
	if err != nil {
		return 0, fmt.Errorf("%w: token id counter: %w", ErrSerializationFailed, err)
	}
	return next, nil
}

// MarshalStoredKeys serializes a document's posting-key list as a count
// followed by length-prefixed keys.
func MarshalStoredKeys(keys core.StoredKeys) []byte {
	size := varint.SizeInt(len(keys))
	for _, key := range keys {
		size += varint.SizeInt(len(key)) + len(key)
	}
	buf := make([]byte, size)
	n := varint.MarshalInt(len(keys), buf)
	for _, key := range keys {
		n += varint.MarshalInt(len(key), buf[n:])
		n += copy(buf[n:], key)
	}
	return buf
}

// UnmarshalStoredKeys deserializes a document's posting-key list.
func UnmarshalStoredKeys(data []byte) (core.StoredKeys, error) {
	count, n, err := varint.UnmarshalInt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: stored key count: %w", ErrSerializationFailed, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative stored key count %d", ErrSerializationFailed, count)
	}
	keys := make(core.StoredKeys, 0, count)
	for i := 0; i < count; i++ {
		length, m, err := varint.UnmarshalInt(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: stored key length: %w", ErrSerializationFailed, err)
		}
		n += m
		if length < 0 || n+length > len(data) {
			return nil, fmt.Errorf("%w: stored key %d", ErrTruncatedData, i)
		}
		key := make([]byte, length)
		copy(key, data[n:n+length])
		n += length
		keys = append(keys, key)
	}
	return keys, nil
}
