package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestExportAndLookup(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bib.db")
	path := writeBib(t, "refs.bib", sampleBib)

	x := Export{DB: db}
	x.Sources = []string{path}

	out, err := run(t, "", x.Run)
	if err != nil {
		t.Fatalf("Export.Run() = %v", err)
	}

	if !strings.Contains(out, "imported 4 entries") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = run(t, "", x.Run)
	if err != nil {
		t.Fatalf("second Export.Run() = %v", err)
	}

	if !strings.Contains(out, "unchanged since") {
		t.Errorf("expected unchanged source, got %q", out)
	}

	l := Lookup{DB: db, Key: "Knuth84"}

	out, err = run(t, "", l.Run)
	if err != nil {
		t.Fatalf("Lookup.Run() = %v", err)
	}

	for _, want := range []string{"# batch ", "@article{knuth84", "journal = {TUGboat}"} {
		if !strings.Contains(out, want) {
			t.Errorf("lookup output missing %q:\n%s", want, out)
		}
	}

	l = Lookup{DB: db}

	out, err = run(t, "", l.Run)
	if err != nil {
		t.Fatalf("Lookup.Run() = %v", err)
	}

	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 ||
		!strings.HasSuffix(lines[0], path) {
		t.Errorf("unexpected import history:\n%s", out)
	}
}

func TestExportSelection(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bib.db")

	x := Export{DB: db, Selection: Selection{Where: `type == "book"`}}
	x.Sources = []string{"-"}

	out, err := run(t, sampleBib, x.Run)
	if err != nil {
		t.Fatalf("Export.Run() = %v", err)
	}

	if !strings.Contains(out, "<stdin>: imported 1 entries") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLookupMissing(t *testing.T) {
	l := Lookup{DB: filepath.Join(t.TempDir(), "bib.db"), Key: "nobody"}

	if _, err := run(t, "", l.Run); err == nil {
		t.Error("expected error for missing key")
	}
}
