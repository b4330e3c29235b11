package bib

import (
	"errors"
	"slices"
	"testing"
)

func entry(t testing.TB, typ, key string, kv ...string) *Entry {
	fields := make([]FieldValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, FieldValue{Name: kv[i], Value: mustLiteral(t, kv[i+1])})
	}

	return NewEntry(typ, key, fields...)
}

func ids(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID()
	}

	return out
}

func TestParseSortKeys(t *testing.T) {
	keys, err := ParseSortKeys("type, -Year ,+author")
	if err != nil {
		t.Fatalf("ParseSortKeys() error: %v", err)
	}

	want := []SortKey{{Field: "type"}, {Field: "year", Desc: true}, {Field: "author"}}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	for _, bad := range []string{"", "type,,year", "-", "a=b"} {
		if _, err := ParseSortKeys(bad); !errors.Is(err, ErrInvalidSortKey) {
			t.Errorf("ParseSortKeys(%q) error = %v", bad, err)
		}
	}
}

func TestSort(t *testing.T) {
	entries := []*Entry{
		entry(t, "book", "b1", "year", "1999", "author", "Zed"),
		entry(t, "article", "a1", "year", "2001", "author", "{\\'E}mile"),
		entry(t, "article", "a2", "year", "980", "author", "Adam"),
		entry(t, "article", "a3", "author", "Bob"),
		entry(t, "book", "b2", "year", "1999", "author", "Amy"),
	}

	Sort(entries, SortKey{Field: "type"}, SortKey{Field: "year", Desc: true}, SortKey{Field: "author"})

	want := []string{"a1", "a2", "a3", "b2", "b1"}
	if got := ids(entries); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	Sort(entries, SortKey{Field: "author"})

	want = []string{"a2", "b2", "a3", "a1", "b1"}
	if got := ids(entries); !slices.Equal(got, want) {
		t.Errorf("order by author = %v, want %v", got, want)
	}
}

func TestDedupe(t *testing.T) {
	entries := []*Entry{
		entry(t, "misc", "K", "title", "The  Title", "year", "2000"),
		entry(t, "misc", "k", "title", "the title", "year", "2001"),
		entry(t, "misc", "j", "title", "{T}he Title", "year", "2000"),
	}

	if got := ids(Dedupe(entries)); !slices.Equal(got, []string{"K", "j"}) {
		t.Errorf("Dedupe() = %v", got)
	}

	if got := ids(Dedupe(entries, "title")); !slices.Equal(got, []string{"K"}) {
		t.Errorf("Dedupe(title) = %v", got)
	}

	if got := ids(Dedupe(entries, "Title", "year")); !slices.Equal(got, []string{"K", "k"}) {
		t.Errorf("Dedupe(title, year) = %v", got)
	}
}
