package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewfinderco/viewfinder-sub006/doctable"
	"github.com/viewfinderco/viewfinder-sub006/index"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func collectIDs(t *testing.T, results index.ResultIterator) []string {
	t.Helper()
	defer results.Close()
	var ids []string
	for ; results.Valid(); results.Next() {
		ids = append(ids, string(results.DocID()))
	}
	return ids
}

func TestDatabase_IndexIsCached(t *testing.T) {
	db := newTestDatabase(t)

	first, err := db.Index("notes")
	require.NoError(t, err)
	second, err := db.Index("notes")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := db.Index("contacts")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestDatabase_IndexNameValidated(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.Index("")
	assert.Error(t, err)
}

func TestDatabase_SearchScenario(t *testing.T) {
	db := newTestDatabase(t)

	ix, err := db.Index("t")
	require.NoError(t, err)
	table := doctable.NewTable(db.Backend(), ix)

	require.NoError(t, table.Save("1", "Café Münster", []byte("0001")))

	results, err := db.Search("cafe", index.ParseOptions{}, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, collectIDs(t, results))
}

func TestDatabase_SearchAcrossIndexes(t *testing.T) {
	db := newTestDatabase(t)

	for i, name := range []string{"contacts", "comments"} {
		ix, err := db.Index(name)
		require.NoError(t, err)
		table := doctable.NewTable(db.Backend(), ix)
		require.NoError(t, table.Save(name+"-doc", "alice everywhere",
			[]byte{'0', byte('1' + i)}))
	}

	results, err := db.Search("alice", index.ParseOptions{}, "contacts", "comments")
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts-doc", "comments-doc"}, collectIDs(t, results))
}

func TestDatabase_SearchPrefix(t *testing.T) {
	db := newTestDatabase(t)

	ix, err := db.Index("t")
	require.NoError(t, err)
	table := doctable.NewTable(db.Backend(), ix)
	require.NoError(t, table.Save("1", "cardiology department", []byte("0001")))

	results, err := db.Search("card", index.ParseOptions{MatchPrefix: true}, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, collectIDs(t, results))
}

func TestDatabase_SearchAST(t *testing.T) {
	db := newTestDatabase(t)

	ix, err := db.Index("t")
	require.NoError(t, err)
	table := doctable.NewTable(db.Backend(), ix)
	require.NoError(t, table.Save("1", "red apple", []byte("0001")))
	require.NoError(t, table.Save("2", "green apple", []byte("0002")))

	query := &index.OrQuery{Children: []index.Node{
		&index.TermQuery{Text: "red"},
		&index.TermQuery{Text: "green"},
	}}
	results, err := db.SearchAST(query, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, collectIDs(t, results))
}

func TestDatabase_DrainThenSuggest(t *testing.T) {
	db := newTestDatabase(t)

	ix, err := db.Index("t")
	require.NoError(t, err)
	table := doctable.NewTable(db.Backend(), ix)
	require.NoError(t, table.Save("1", "espresso machine", []byte("0001")))
	require.NoError(t, table.Save("2", "espresso cup", []byte("0002")))
	db.Drain()

	suggestions, err := ix.GetSuggestions("espr", 0)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "espresso", suggestions[0].Term)
	assert.Equal(t, int64(2), suggestions[0].Count)
}

func TestDatabase_CloseIsFinal(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)

	ix, err := db.Index("t")
	require.NoError(t, err)
	table := doctable.NewTable(db.Backend(), ix)
	require.NoError(t, table.Save("1", "closing time", []byte("0001")))

	require.NoError(t, db.Close())
}
