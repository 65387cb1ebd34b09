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

import "errors"

// Domain validation errors
var (
	// ErrReservedByte indicates a sort key or document id contains the
	// reserved separator byte.
	ErrReservedByte = errors.New("reserved separator byte in value")

	// ErrEmptyDocID indicates an empty document id.
	ErrEmptyDocID = errors.New("document id cannot be empty")

	// ErrEmptySortKey indicates an empty sort key.
	ErrEmptySortKey = errors.New("sort key cannot be empty")

	// ErrEmptyIndexName indicates an empty index name.
	ErrEmptyIndexName = errors.New("index name cannot be empty")

	// ErrEmptyTerm indicates an indexed term with an empty index term.
	ErrEmptyTerm = errors.New("index term cannot be empty")
)
