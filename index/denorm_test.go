package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viewfinderco/viewfinder-sub006/core"
)

func indexTerms(terms []core.IndexedTerm) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.IndexTerm)
	}
	return out
}

func TestParseIndexTerms_Simple(t *testing.T) {
	pos := 0
	terms := ParseIndexTerms("red apple", &pos)

	require.Len(t, terms, 2)
	assert.Equal(t, "red", terms[0].IndexTerm)
	assert.Empty(t, terms[0].RawTerm, "raw term is empty when identical to index term")
	assert.Equal(t, 0, terms[0].Position)
	assert.Equal(t, "apple", terms[1].IndexTerm)
	assert.Equal(t, 1, terms[1].Position)
	assert.Equal(t, 2, pos)
}

func TestParseIndexTerms_CaseFolding(t *testing.T) {
	pos := 0
	terms := ParseIndexTerms("Hello", &pos)

	require.Len(t, terms, 1)
	assert.Equal(t, "hello", terms[0].IndexTerm)
	assert.Equal(t, "Hello", terms[0].RawTerm)
	assert.Equal(t, "Hello", terms[0].Display())
}

func TestParseIndexTerms_AccentedVariants(t *testing.T) {
	pos := 0
	terms := ParseIndexTerms("Café Münster", &pos)

	assert.ElementsMatch(t,
		[]string{"café", "cafe", "münster", "munster"},
		indexTerms(terms))

	// All variants of one word share its position.
	positions := map[string]int{}
	for _, term := range terms {
		positions[term.IndexTerm] = term.Position
	}
	assert.Equal(t, positions["café"], positions["cafe"])
	assert.Equal(t, positions["münster"], positions["munster"])
	assert.NotEqual(t, positions["café"], positions["münster"])

	// Raw terms recover the original words.
	for _, term := range terms {
		switch term.IndexTerm {
		case "café", "cafe":
			assert.Equal(t, "Café", term.RawTerm)
		case "münster", "munster":
			assert.Equal(t, "Münster", term.RawTerm)
		}
	}
}

func TestParseIndexTerms_PunctuationStripped(t *testing.T) {
	pos := 0
	terms := ParseIndexTerms("l'été", &pos)

	got := indexTerms(terms)
	assert.Contains(t, got, "l'été")
	assert.Contains(t, got, "lété")
	assert.Contains(t, got, "l'ete")
	assert.Contains(t, got, "lete")

	for _, term := range terms {
		assert.Equal(t, 0, term.Position, "variants share one position")
	}
	assert.Equal(t, 1, pos)
}

func TestParseIndexTerms_SkipsNonWords(t *testing.T) {
	pos := 0
	terms := ParseIndexTerms("... !!! ---", &pos)
	assert.Empty(t, terms)
	assert.Zero(t, pos)
}

func TestParseIndexTerms_NonLatinKeepsOriginal(t *testing.T) {
	pos := 0
	// Han ideographs segment one per character; no ASCII form exists, so
	// only the original runes are indexed.
	terms := ParseIndexTerms("日本", &pos)

	assert.Equal(t, []string{"日", "本"}, indexTerms(terms))
	assert.Equal(t, 2, pos)
}

func TestParseIndexTerms_PositionContinues(t *testing.T) {
	pos := 3
	terms := ParseIndexTerms("one two", &pos)
	require.Len(t, terms, 2)
	assert.Equal(t, 3, terms[0].Position)
	assert.Equal(t, 4, terms[1].Position)
	assert.Equal(t, 5, pos)
}

func TestAddVerbatimToken(t *testing.T) {
	pos := 7
	term := AddVerbatimToken("_uid:42!", &pos)

	assert.Equal(t, "_uid:42!", term.IndexTerm, "verbatim tokens bypass normalization")
	assert.Empty(t, term.RawTerm)
	assert.Equal(t, 7, term.Position)
	assert.Equal(t, 8, pos)
}
