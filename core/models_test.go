package core

import (
	"bytes"
	"testing"
)

func TestDocIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "unicode content", content: "Café Münster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := DocIDFromContent(tt.content)
			id2 := DocIDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("DocIDFromContent() produced different IDs for same content: %s vs %s", id1, id2)
			}
			if bytes.IndexByte([]byte(id1), Sep) >= 0 {
				t.Errorf("DocIDFromContent() produced id containing separator byte: %q", id1)
			}
		})
	}

	if DocIDFromContent("a") == DocIDFromContent("b") {
		t.Error("DocIDFromContent() produced identical IDs for different content")
	}
}

func TestSortKeyFromSequence(t *testing.T) {
	a := SortKeyFromSequence(1)
	b := SortKeyFromSequence(2)
	c := SortKeyFromSequence(1 << 40)

	if bytes.Compare(a, b) >= 0 {
		t.Errorf("expected %q < %q", a, b)
	}
	if bytes.Compare(b, c) >= 0 {
		t.Errorf("expected %q < %q", b, c)
	}
	if bytes.IndexByte(c, Sep) >= 0 {
		t.Errorf("sort key contains separator byte: %q", c)
	}

	// Complemented sequences sort newest first.
	newer := SortKeyFromSequence(^uint64(200))
	older := SortKeyFromSequence(^uint64(100))
	if bytes.Compare(newer, older) >= 0 {
		t.Errorf("expected complemented newer key %q < older key %q", newer, older)
	}
}

func TestIndexedTermDisplay(t *testing.T) {
	withRaw := IndexedTerm{IndexTerm: "cafe", RawTerm: "Café", Position: 0}
	if withRaw.Display() != "Café" {
		t.Errorf("Display() = %q, want %q", withRaw.Display(), "Café")
	}

	noRaw := IndexedTerm{IndexTerm: "cafe", Position: 0}
	if noRaw.Display() != "cafe" {
		t.Errorf("Display() = %q, want %q", noRaw.Display(), "cafe")
	}
}
