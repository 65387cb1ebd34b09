package index

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewfinderco/viewfinder-sub006/core"
	"github.com/viewfinderco/viewfinder-sub006/storage/badger"
)

func newTestBackend(t *testing.T) *badger.Backend {
	t.Helper()
	backend, err := badger.NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func newTestIndex(t *testing.T, name string) *Index {
	t.Helper()
	ix, err := New(newTestBackend(t), name)
	require.NoError(t, err)
	t.Cleanup(ix.Drain)
	return ix
}

func term(indexTerm, rawTerm string) core.IndexedTerm {
	return core.IndexedTerm{IndexTerm: indexTerm, RawTerm: rawTerm}
}

func TestLexicon_AssignsDistinctIDs(t *testing.T) {
	ix := newTestIndex(t, "t")

	idCafe, err := ix.lex.tokenID(term("cafe", "Café"))
	require.NoError(t, err)
	idTea, err := ix.lex.tokenID(term("tea", ""))
	require.NoError(t, err)

	assert.NotEqual(t, idCafe, idTea)
}

func TestLexicon_StableForSameTerm(t *testing.T) {
	ix := newTestIndex(t, "t")

	first, err := ix.lex.tokenID(term("cafe", "Café"))
	require.NoError(t, err)
	second, err := ix.lex.tokenID(term("cafe", "Café"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLexicon_RawVariantsGetOwnIDs(t *testing.T) {
	ix := newTestIndex(t, "t")

	// Same index term with different raw spellings are distinct lexicon
	// entries so highlighting can recover the original text.
	folded, err := ix.lex.tokenID(term("red", ""))
	require.NoError(t, err)
	capitalized, err := ix.lex.tokenID(term("red", "Red"))
	require.NoError(t, err)
	assert.NotEqual(t, folded, capitalized)
}

func TestLexicon_EmptyTermRejected(t *testing.T) {
	ix := newTestIndex(t, "t")

	_, err := ix.lex.tokenID(term("", ""))
	assert.ErrorIs(t, err, core.ErrEmptyTerm)
}

func TestLexicon_IDsSurviveReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lexdb")

	backend, err := badger.OpenBackend(dir, false)
	require.NoError(t, err)
	ix, err := New(backend, "t")
	require.NoError(t, err)

	before, err := ix.lex.tokenID(term("cafe", "Café"))
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = badger.OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	ix, err = New(backend, "t")
	require.NoError(t, err)

	after, err := ix.lex.tokenID(term("cafe", "Café"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "token ids are durable, not cache artifacts")

	fresh, err := ix.lex.tokenID(term("brand-new", ""))
	require.NoError(t, err)
	assert.NotEqual(t, before, fresh)
}

func TestLexicon_CacheOverflowKeepsIDsStable(t *testing.T) {
	ix, err := New(newTestBackend(t), "t", WithLexiconCacheSize(8))
	require.NoError(t, err)

	want, err := ix.lex.tokenID(term("anchor", ""))
	require.NoError(t, err)

	// Blow the cache several times over.
	for i := 0; i < 64; i++ {
		_, err := ix.lex.tokenID(term(fmt.Sprintf("filler%02d", i), ""))
		require.NoError(t, err)
	}

	got, err := ix.lex.tokenID(term("anchor", ""))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLexicon_IndependentPerIndex(t *testing.T) {
	backend := newTestBackend(t)
	a, err := New(backend, "a")
	require.NoError(t, err)
	b, err := New(backend, "b")
	require.NoError(t, err)

	// Both start from the same counter value in their own key space.
	idA, err := a.lex.tokenID(term("shared", ""))
	require.NoError(t, err)
	idB, err := b.lex.tokenID(term("shared", ""))
	require.NoError(t, err)
	assert.Equal(t, idA, idB)

	_, err = a.lex.tokenID(term("only-in-a", ""))
	require.NoError(t, err)
	nextB, err := b.lex.tokenID(term("second-in-b", ""))
	require.NoError(t, err)
	assert.Equal(t, idB+1, nextB, "index b's counter is untouched by index a")
}
