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


// Package index implements an embedded boolean full-text index on top of
// an ordered key-value store.
//
// An Index maps denormalized terms to small integer token ids through a
// durable lexicon, stores inverted postings keyed by (token id, sort key,
// document id), and compiles Term/Prefix/And/Or query trees into lazy,
// sorted result iterators that merge posting streams without materializing
// result sets. Per-token hit counts used for autocomplete ranking are
// maintained eventually-consistently by a single-flight background
// refresher.
//
// Documents are owned by the caller: the index records, per document, only
// the posting keys it last wrote (core.StoredKeys), which the caller
// persists inside its own record and hands back on the next update or
// delete.
package index
