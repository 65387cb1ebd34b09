package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/viewfinderco/viewfinder-sub006/core"
	"github.com/viewfinderco/viewfinder-sub006/storage"
)

// Key spaces under one named index. Every key starts with "ft:<name>:"
// followed by a one- or two-byte space tag:
//
//	i:  posting        <token-id BE8><SEP><sort-key><SEP><doc-id>
//	l:  lexicon        <index-term><SEP><raw-term-or-empty>
//	r:  reverse        <token-id BE8> -> lexicon key
//	m:  metadata       next_id -> varint counter
//	ti: invalidation   <token-id BE8> -> ()
//
// Token ids are written big-endian so lexicographic key order matches
// numeric order. Sort keys and document ids must not contain SEP.
const (
	keyspacePrefix = "ft:"

	postingSpace      = "i:"
	lexiconSpace      = "l:"
	reverseSpace      = "r:"
	metaSpace         = "m:"
	invalidationSpace = "ti:"

	metaNextIDField = "next_id"

	tokenIDWidth = 8
)

// keySet builds and parses the keys of one named index.
type keySet struct {
	prefix []byte // "ft:<name>:"
}

func newKeySet(name string) keySet {
	return keySet{prefix: []byte(keyspacePrefix + name + ":")}
}

func (k keySet) spaced(space string, size int) []byte {
	buf := make([]byte, 0, len(k.prefix)+len(space)+size)
	buf = append(buf, k.prefix...)
	buf = append(buf, space...)
	return buf
}

func appendTokenID(buf []byte, tokenID core.TokenID) []byte {
	var be [tokenIDWidth]byte
	binary.BigEndian.PutUint64(be[:], uint64(tokenID))
	return append(buf, be[:]...)
}

// tokenPostingPrefix is the scan prefix covering every posting of one token.
func (k keySet) tokenPostingPrefix(tokenID core.TokenID) []byte {
	buf := k.spaced(postingSpace, tokenIDWidth+1)
	buf = appendTokenID(buf, tokenID)
	return append(buf, core.Sep)
}

func (k keySet) postingKey(tokenID core.TokenID, sortKey, docID []byte) []byte {
	buf := k.spaced(postingSpace, tokenIDWidth+len(sortKey)+len(docID)+2)
	buf = appendTokenID(buf, tokenID)
	buf = append(buf, core.Sep)
	buf = append(buf, sortKey...)
	buf = append(buf, core.Sep)
	return append(buf, docID...)
}

// parsePostingKey decodes a posting key into its token id, sort key, and
// document id. Keys in the legacy ASCII-decimal token id layout are still
// decoded for removal of postings written by old builds.
func (k keySet) parsePostingKey(key []byte) (core.TokenID, []byte, []byte, error) {
	body, ok := bytes.CutPrefix(key, k.prefix)
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: posting key %q outside index prefix", storage.ErrMalformedKey, key)
	}
	body, ok = bytes.CutPrefix(body, []byte(postingSpace))
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: posting key %q outside posting space", storage.ErrMalformedKey, key)
	}

	if len(body) > tokenIDWidth && body[tokenIDWidth] == core.Sep {
		tokenID := core.TokenID(binary.BigEndian.Uint64(body[:tokenIDWidth]))
		sortKey, docID, err := splitPostingTail(body[tokenIDWidth+1:])
		if err == nil {
			return tokenID, sortKey, docID, nil
		}
	}
	return parseLegacyPostingBody(body)
}

// parseLegacyPostingBody handles the original posting layout where the
// token id was encoded as ASCII decimal digits.
func parseLegacyPostingBody(body []byte) (core.TokenID, []byte, []byte, error) {
	digits, tail, ok := bytes.Cut(body, []byte{core.Sep})
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: posting body %q", storage.ErrMalformedKey, body)
	}
	id, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: posting token id %q", storage.ErrMalformedKey, digits)
	}
	sortKey, docID, err := splitPostingTail(tail)
	if err != nil {
		return 0, nil, nil, err
	}
	return core.TokenID(id), sortKey, docID, nil
}

// splitPostingTail splits "<sort-key><SEP><doc-id>". Exactly one separator
// is expected since neither half may contain it.
func splitPostingTail(tail []byte) ([]byte, []byte, error) {
	sortKey, docID, ok := bytes.Cut(tail, []byte{core.Sep})
	if !ok || len(sortKey) == 0 || len(docID) == 0 || bytes.IndexByte(docID, core.Sep) >= 0 {
		return nil, nil, fmt.Errorf("%w: posting tail %q", storage.ErrMalformedKey, tail)
	}
	return sortKey, docID, nil
}

func (k keySet) lexiconKey(indexTerm, rawTerm string) []byte {
	buf := k.spaced(lexiconSpace, len(indexTerm)+len(rawTerm)+1)
	buf = append(buf, indexTerm...)
	buf = append(buf, core.Sep)
	return append(buf, rawTerm...)
}

// lexiconScanPrefix covers every lexicon entry whose index term starts with
// the given prefix (empty prefix covers the whole lexicon).
func (k keySet) lexiconScanPrefix(indexTermPrefix string) []byte {
	buf := k.spaced(lexiconSpace, len(indexTermPrefix))
	return append(buf, indexTermPrefix...)
}

// lexiconTermPrefix covers every lexicon entry for exactly the given index
// term, across all raw variants.
func (k keySet) lexiconTermPrefix(indexTerm string) []byte {
	buf := k.spaced(lexiconSpace, len(indexTerm)+1)
	buf = append(buf, indexTerm...)
	return append(buf, core.Sep)
}

// parseLexiconKey decodes a lexicon key into (index term, raw term).
func (k keySet) parseLexiconKey(key []byte) (string, string, error) {
	body, ok := bytes.CutPrefix(key, k.prefix)
	if !ok {
		return "", "", fmt.Errorf("%w: lexicon key %q outside index prefix", storage.ErrMalformedKey, key)
	}
	body, ok = bytes.CutPrefix(body, []byte(lexiconSpace))
	if !ok {
		return "", "", fmt.Errorf("%w: lexicon key %q outside lexicon space", storage.ErrMalformedKey, key)
	}
	indexTerm, rawTerm, ok := bytes.Cut(body, []byte{core.Sep})
	if !ok || len(indexTerm) == 0 {
		return "", "", fmt.Errorf("%w: lexicon body %q", storage.ErrMalformedKey, body)
	}
	return string(indexTerm), string(rawTerm), nil
}

func (k keySet) reverseKey(tokenID core.TokenID) []byte {
	return appendTokenID(k.spaced(reverseSpace, tokenIDWidth), tokenID)
}

func (k keySet) metaNextIDKey() []byte {
	buf := k.spaced(metaSpace, len(metaNextIDField))
	return append(buf, metaNextIDField...)
}

func (k keySet) invalidationKey(tokenID core.TokenID) []byte {
	return appendTokenID(k.spaced(invalidationSpace, tokenIDWidth), tokenID)
}

func (k keySet) invalidationScanPrefix() []byte {
	return k.spaced(invalidationSpace, 0)
}

// parseInvalidationKey recovers the token id from an invalidation marker.
func (k keySet) parseInvalidationKey(key []byte) (core.TokenID, error) {
	body, ok := bytes.CutPrefix(key, k.prefix)
	if !ok {
		return 0, fmt.Errorf("%w: invalidation key %q outside index prefix", storage.ErrMalformedKey, key)
	}
	body, ok = bytes.CutPrefix(body, []byte(invalidationSpace))
	if !ok || len(body) != tokenIDWidth {
		return 0, fmt.Errorf("%w: invalidation key %q", storage.ErrMalformedKey, key)
	}
	return core.TokenID(binary.BigEndian.Uint64(body)), nil
}
