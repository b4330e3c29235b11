package bib

import (
	"slices"
	"testing"
)

func field(t testing.TB, name, raw string) Field {
	return Field{Name: name, Value: NewStringExpr(mustLiteral(t, raw))}
}

func TestEntryDataFields(t *testing.T) {
	e := NewEntryData("Article", "k", nil,
		field(t, "Title", "First"),
		field(t, "year", "2000"),
		field(t, "TITLE", "Second"),
	)

	if e.Type() != "article" || e.ID() != "k" {
		t.Errorf("Type(), ID() = %q, %q", e.Type(), e.ID())
	}

	if got := e.FieldNames(); !slices.Equal(got, []string{"title", "year"}) {
		t.Errorf("FieldNames() = %v", got)
	}

	title, ok := e.Field("title")
	if !ok || title.Resolve().Raw() != "First" {
		t.Error("first definition of a repeated field did not win")
	}
}

func TestEntryCrossref(t *testing.T) {
	index := map[string]*EntryData{}
	index["proc"] = NewEntryData("proceedings", "proc", index,
		field(t, "booktitle", "Proceedings of Things"),
		field(t, "year", "1999"),
		field(t, "title", "Parent Title"),
	)
	index["child"] = NewEntryData("inproceedings", "child", index,
		field(t, "title", "Child Title"),
		field(t, "author", "A. Author"),
		field(t, "crossref", "proc"),
	)

	child := index["child"].Resolve()

	if got, _ := child.Field("title"); got.Raw() != "Child Title" {
		t.Errorf("own field overridden: %q", got.Raw())
	}

	if got, _ := child.Field("booktitle"); got.Raw() != "Proceedings of Things" {
		t.Errorf("inherited booktitle = %q", got.Raw())
	}

	want := []string{"title", "author", "crossref", "booktitle", "year"}
	if got := child.FieldNames(); !slices.Equal(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}

	if child.Source() != index["child"] {
		t.Error("Source() does not point at the entry data")
	}

	if !child.IsStandardCompliant() {
		t.Errorf("resolved child missing %v", child.MissingFields())
	}

	if index["child"].IsStandardCompliant() {
		t.Error("entry data counted inherited fields")
	}
}

func TestEntryCrossrefCycle(t *testing.T) {
	index := map[string]*EntryData{}
	index["a"] = NewEntryData("misc", "a", index,
		field(t, "crossref", "b"),
		field(t, "note", "from a"),
	)
	index["b"] = NewEntryData("misc", "b", index,
		field(t, "crossref", "a"),
		field(t, "title", "from b"),
	)
	index["self"] = NewEntryData("misc", "self", index,
		field(t, "crossref", "self"),
	)

	a := index["a"].Resolve()
	if got, _ := a.Field("title"); got.Raw() != "from b" {
		t.Errorf("a.title = %q", got.Raw())
	}

	if self := index["self"].Resolve(); self.Len() != 1 {
		t.Errorf("self reference has %d fields", self.Len())
	}
}

func TestEntryMemo(t *testing.T) {
	e := NewEntryData("misc", "k", nil, field(t, "title", "T"))

	first := e.Resolve()
	if e.Resolve() != first {
		t.Error("second Resolve() did not reuse the cached entry")
	}

	if e.Resolve(WithRefresh(true)) == first {
		t.Error("refreshed Resolve() reused the cached entry")
	}

	if !e.Unresolve() {
		t.Error("Unresolve() = false")
	}
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("Book", "b",
		FieldValue{Name: "Title", Value: mustLiteral(t, "T")},
		FieldValue{Name: "title", Value: mustLiteral(t, "U")},
	)

	if e.Len() != 1 || !e.Has("TITLE") || e.Source() != nil {
		t.Errorf("NewEntry() = %+v", e.ToMap())
	}
}
