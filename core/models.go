package core

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// TokenID identifies one normalized term variant within a named index.
// Ids are assigned once from the per-index counter, monotonically, and are
// never reused or renumbered.
type TokenID int64

// Sep is the reserved key separator byte. It must never appear inside a
// sort key or a document id; mutating operations reject sort keys that
// contain it before anything is written.
const Sep byte = 0x00

// IndexedTerm is one normalized variant of an indexed word.
//
// Denormalization can emit several IndexedTerms for a single word (the word
// itself, a punctuation-stripped form, ASCII-transliterated forms). All
// variants of one word share the same Position so consumers can treat them
// as alternatives.
type IndexedTerm struct {
	IndexTerm string
	RawTerm   string // empty when identical to IndexTerm
	Position  int
}

// Display returns the term to show to a user: the raw term when one was
// recorded, the index term otherwise.
func (t IndexedTerm) Display() string {
	if t.RawTerm != "" {
		return t.RawTerm
	}
	return t.IndexTerm
}

// Suggestion is one autocomplete candidate with its posting count.
type Suggestion struct {
	Term  string
	Count int64
}

// StoredKeys is the list of posting keys last written for one document.
// The owning collaborator persists it inside its own record and hands it
// back on the next update or delete so that exactly those keys are removed.
type StoredKeys [][]byte

// DocIDFromContent derives a stable, printable document id from text
// content using BLAKE2b hashing. Identical content produces identical ids;
// the hex form never contains the reserved separator byte.
func DocIDFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// SortKeyFromSequence encodes a uint64 sequence number as a fixed-width,
// separator-free sort key whose ascending byte order matches numeric order.
// Callers that want newest-first results pass the bitwise complement of a
// timestamp so larger timestamps sort earlier.
func SortKeyFromSequence(seq uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	dst := make([]byte, hex.EncodedLen(len(buf)))
	hex.Encode(dst, buf[:])
	return dst
}
