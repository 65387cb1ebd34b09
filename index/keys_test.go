package index

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewfinderco/viewfinder-sub006/core"
)

func TestPostingKeyRoundTrip(t *testing.T) {
	keys := newKeySet("notes")
	key := keys.postingKey(42, []byte("0001"), []byte("doc-a"))

	tokenID, sortKey, docID, err := keys.parsePostingKey(key)
	require.NoError(t, err)
	assert.Equal(t, core.TokenID(42), tokenID)
	assert.Equal(t, []byte("0001"), sortKey)
	assert.Equal(t, []byte("doc-a"), docID)
}

func TestPostingKeyUnderTokenPrefix(t *testing.T) {
	keys := newKeySet("notes")
	key := keys.postingKey(7, []byte("0001"), []byte("d"))
	prefix := keys.tokenPostingPrefix(7)

	assert.Equal(t, prefix, key[:len(prefix)])
}

func TestTokenPostingPrefixOrdering(t *testing.T) {
	keys := newKeySet("notes")
	// Big-endian token ids keep lexicographic order numeric: token 255
	// must not scan into token 256's postings.
	low := keys.tokenPostingPrefix(255)
	high := keys.tokenPostingPrefix(256)
	assert.Less(t, string(low), string(high))
}

func TestParsePostingKey_LegacyDecimalTokenID(t *testing.T) {
	keys := newKeySet("notes")

	legacy := append([]byte("ft:notes:i:"), strconv.Itoa(9001)...)
	legacy = append(legacy, core.Sep)
	legacy = append(legacy, "0002"...)
	legacy = append(legacy, core.Sep)
	legacy = append(legacy, "doc-b"...)

	tokenID, sortKey, docID, err := keys.parsePostingKey(legacy)
	require.NoError(t, err)
	assert.Equal(t, core.TokenID(9001), tokenID)
	assert.Equal(t, []byte("0002"), sortKey)
	assert.Equal(t, []byte("doc-b"), docID)
}

func TestParsePostingKey_Malformed(t *testing.T) {
	keys := newKeySet("notes")

	cases := [][]byte{
		[]byte("ft:other:i:junk"),      // wrong index
		[]byte("ft:notes:l:term"),      // wrong space
		[]byte("ft:notes:i:nosep"),     // no separators at all
		keys.tokenPostingPrefix(1),     // prefix only, empty tail
		[]byte("ft:notes:i:12\x00abc"), // legacy id but tail missing separator
	}
	for _, key := range cases {
		_, _, _, err := keys.parsePostingKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestLexiconKeyRoundTrip(t *testing.T) {
	keys := newKeySet("notes")

	for _, tc := range []struct{ indexTerm, rawTerm string }{
		{"cafe", "Café"},
		{"cafe", ""},
		{"münster", "Münster"},
	} {
		key := keys.lexiconKey(tc.indexTerm, tc.rawTerm)
		indexTerm, rawTerm, err := keys.parseLexiconKey(key)
		require.NoError(t, err)
		assert.Equal(t, tc.indexTerm, indexTerm)
		assert.Equal(t, tc.rawTerm, rawTerm)
	}
}

func TestLexiconPrefixes(t *testing.T) {
	keys := newKeySet("notes")

	key := keys.lexiconKey("cafe", "Café")
	termPrefix := keys.lexiconTermPrefix("cafe")
	scanPrefix := keys.lexiconScanPrefix("ca")

	assert.Equal(t, termPrefix, key[:len(termPrefix)])
	assert.Equal(t, scanPrefix, key[:len(scanPrefix)])

	// The exact-term prefix must not cover longer terms.
	longer := keys.lexiconKey("cafeteria", "")
	assert.NotEqual(t, termPrefix, longer[:len(termPrefix)])
}

func TestInvalidationKeyRoundTrip(t *testing.T) {
	keys := newKeySet("notes")
	key := keys.invalidationKey(314)

	tokenID, err := keys.parseInvalidationKey(key)
	require.NoError(t, err)
	assert.Equal(t, core.TokenID(314), tokenID)

	scan := keys.invalidationScanPrefix()
	assert.Equal(t, scan, key[:len(scan)])
}

func TestKeySpacesAreDisjoint(t *testing.T) {
	keys := newKeySet("n")

	posting := keys.postingKey(1, []byte("s"), []byte("d"))
	lex := keys.lexiconKey("s", "")
	rev := keys.reverseKey(1)
	meta := keys.metaNextIDKey()
	inval := keys.invalidationKey(1)

	all := map[string]struct{}{}
	for _, key := range [][]byte{posting, lex, rev, meta, inval} {
		all[string(key)] = struct{}{}
	}
	assert.Len(t, all, 5)
}
