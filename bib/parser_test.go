package bib

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

func parse(t testing.TB, src string) *Database {
	t.Helper()

	return Parse(context.Background(), src)
}

func codes(db *Database) []Code {
	out := make([]Code, len(db.Diagnostics))
	for i, d := range db.Diagnostics {
		out[i] = d.Code
	}

	return out
}

func keys(db *Database) []string {
	out := make([]string, len(db.Entries))
	for i, e := range db.Entries {
		out[i] = e.ID()
	}

	return out
}

func fieldRaw(t *testing.T, e *EntryData, name string, opts ...ResolveOption) string {
	t.Helper()

	v, ok := e.Field(name)
	if !ok {
		t.Fatalf("entry %q has no field %q", e.ID(), name)
	}

	return v.Resolve(opts...).Raw()
}

func TestParseEntry(t *testing.T) {
	db := parse(t, `
@Article{Knuth84,
  Author = "Donald E. Knuth",
  title  = {Literate {P}rogramming},
  year   = 1984,
  month  = jan,
}`)

	if len(db.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	e, ok := db.Entry("Knuth84")
	if !ok {
		t.Fatalf("entry not indexed; keys %v", keys(db))
	}

	if e.Type() != "article" {
		t.Errorf("Type() = %q", e.Type())
	}

	if got := e.FieldNames(); !slices.Equal(got, []string{"author", "title", "year", "month"}) {
		t.Errorf("FieldNames() = %v", got)
	}

	if got := fieldRaw(t, e, "title"); got != "Literate {P}rogramming" {
		t.Errorf("title = %q", got)
	}

	if got := fieldRaw(t, e, "year"); got != "1984" {
		t.Errorf("year = %q", got)
	}

	if got := fieldRaw(t, e, "month", WithMacros(Months), WithRefresh(true)); got != "January" {
		t.Errorf("month = %q", got)
	}

	if e.Pos().Line != 2 || e.Pos().Column != 1 {
		t.Errorf("Pos() = %v", e.Pos())
	}
}

func TestParseParenEntryAndStrings(t *testing.T) {
	db := parse(t, `
@string{ first = "Donald" }
@STRING( last = {Knuth} )
@book(k, author = first # " " # last, title = "T",)`)

	if len(db.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	if got := fieldRaw(t, db.Entries[0], "author"); got != "Donald Knuth" {
		t.Errorf("author = %q", got)
	}

	if got := db.StringIDs(); !slices.Equal(got, []string{"first", "last"}) {
		t.Errorf("StringIDs() = %v", got)
	}
}

func TestParseWhitespacePreserved(t *testing.T) {
	db := parse(t, "@misc{k, title = {a   b\n c}, note = \"x\ty\"}")

	if got := fieldRaw(t, db.Entries[0], "title"); got != "a   b\n c" {
		t.Errorf("title = %q", got)
	}

	if got := fieldRaw(t, db.Entries[0], "note"); got != "x\ty" {
		t.Errorf("note = %q", got)
	}
}

func TestParseDuplicates(t *testing.T) {
	db := parse(t, `
@string{s = "one"}
@string{S = "two"}
@misc{k, title = {A}, TITLE = {B}}
@misc{k, title = {C}}`)

	want := []Code{CodeDuplicateStringID, CodeDuplicateFieldID, CodeDuplicateEntryKey}
	if got := codes(db); !slices.Equal(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}

	if got := NewStringRef("s", db.Strings).Resolve().Raw(); got != "two" {
		t.Errorf("string s = %q, want the last definition", got)
	}

	if len(db.Entries) != 2 {
		t.Fatalf("got %d entries, want both duplicates", len(db.Entries))
	}

	if got := fieldRaw(t, db.Index["k"], "title"); got != "A" {
		t.Errorf("indexed title = %q, want the first entry and first field", got)
	}
}

func TestParseMissingKey(t *testing.T) {
	db := parse(t, `@misc{title = {X}, year = 2000}`)

	if got := codes(db); !slices.Equal(got, []Code{CodeMissingEntryKey}) {
		t.Fatalf("codes = %v", got)
	}

	if d := db.Diagnostics[0]; d.Pos.Offset != 6 {
		t.Errorf("diagnostic offset = %d, want 6", d.Pos.Offset)
	}

	e := db.Entries[0]
	if e.ID() != "" {
		t.Errorf("ID() = %q, want empty", e.ID())
	}

	if got := e.FieldNames(); !slices.Equal(got, []string{"title", "year"}) {
		t.Errorf("FieldNames() = %v", got)
	}
}

func TestParseComments(t *testing.T) {
	db := parse(t, "junk text\n"+
		"@comment{a {b} c}\n"+
		"@comment(a (b) {c})\n"+
		"@comment{a ) b}\n"+
		"@comment bare line\n"+
		"@misc{k,}\n"+
		"trailing")

	if len(db.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	var explicit, implicit []string

	for _, c := range db.Comments {
		if c.Implicit {
			implicit = append(implicit, strings.TrimSpace(c.Text))
		} else {
			explicit = append(explicit, c.Text)
		}
	}

	if want := []string{"a {b} c", "a (b) {c}", "a ) b"}; !slices.Equal(explicit, want) {
		t.Errorf("explicit comments = %q, want %q", explicit, want)
	}

	if want := []string{"junk text", "bare line", "trailing"}; !slices.Equal(implicit, want) {
		t.Errorf("implicit comments = %q, want %q", implicit, want)
	}

	if got := keys(db); !slices.Equal(got, []string{"k"}) {
		t.Errorf("keys = %v", got)
	}
}

func TestParsePreamble(t *testing.T) {
	db := parse(t, `@preamble{"\newcommand{\a}{A}"} @preamble( "b" # {c} )`)

	if len(db.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	if got := db.ResolvePreamble().Raw(); got != `\newcommand{\a}{A}bc` {
		t.Errorf("preamble = %q", got)
	}
}

func TestParseDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		codes []Code
		keys  []string
	}{
		{
			name:  "missing field comma",
			input: "@article{k1, title = {A} year = 2000}\n@misc{k2, title = {B}}",
			codes: []Code{CodeMissingFieldComma},
			keys:  []string{"k2"},
		},
		{
			name:  "unterminated quote",
			input: "@misc{k, title = \"abc}\n@misc{k2,}",
			codes: []Code{CodeUnterminatedQuote},
			keys:  []string{"k2"},
		},
		{
			name:  "unclosed brace",
			input: "@misc{k, title = {abc\n@misc{k2,}",
			codes: []Code{CodeUnclosedBrace},
			keys:  []string{"k2"},
		},
		{
			name:  "outstanding brace in quotes",
			input: `@misc{k, title = "a}b"}`,
			codes: []Code{CodeOutstandingBrace},
			keys:  []string{"k"},
		},
		{
			name:  "mismatched close",
			input: "@misc{k, title = {x})",
			codes: []Code{CodeMismatchedCloseDelimiter},
		},
		{
			name:  "missing open delimiter",
			input: "@misc k",
			codes: []Code{CodeMissingOpenDelimiter},
		},
		{
			name:  "missing type",
			input: "@{k,}",
			codes: []Code{CodeMissingTypeID},
		},
		{
			name:  "missing type at end",
			input: "text @",
			codes: []Code{CodeMissingTypeID},
		},
		{
			name:  "invalid type",
			input: "@9misc{k,}",
			codes: []Code{CodeInvalidTypeID},
		},
		{
			name:  "missing field equals",
			input: "@misc{k, title {x}}",
			codes: []Code{CodeMissingFieldEquals},
		},
		{
			name:  "missing value",
			input: "@misc{k, title = ,}",
			codes: []Code{CodeMissingValue},
		},
		{
			name:  "missing concat operand",
			input: `@misc{k, title = "a" # }`,
			codes: []Code{CodeMissingConcatOperand},
		},
		{
			name:  "unexpected end of input",
			input: `@misc{k, title = "a"`,
			codes: []Code{CodeUnexpectedEOF},
		},
		{
			name:  "unterminated comment",
			input: "@comment{abc",
			codes: []Code{CodeUnterminatedComment},
		},
		{
			name:  "unterminated comment recovers",
			input: "@comment{abc\n@misc{k,}",
			codes: []Code{CodeUnterminatedComment},
			keys:  []string{"k"},
		},
		{
			name:  "missing string equals",
			input: `@string{foo "x"}`,
			codes: []Code{CodeMissingStringEquals},
		},
		{
			name:  "missing string close",
			input: `@string{foo = "x" "y"}`,
			codes: []Code{CodeMissingStringClose},
		},
		{
			name:  "missing string id",
			input: `@string{= "x"}`,
			codes: []Code{CodeMissingStringID},
		},
		{
			name:  "invalid string id",
			input: `@string{1x = "y"}`,
			codes: []Code{CodeInvalidStringID},
		},
		{
			name:  "invalid entry key",
			input: `@misc{"k", title = x}`,
			codes: []Code{CodeInvalidEntryKey},
		},
		{
			name:  "missing key comma",
			input: `@misc{k title = x}`,
			codes: []Code{CodeMissingKeyComma},
		},
		{
			name:  "missing field id",
			input: `@misc{k, = x}`,
			codes: []Code{CodeMissingFieldID},
		},
		{
			name:  "invalid field id",
			input: `@misc{k, 1st = x}`,
			codes: []Code{CodeInvalidFieldID},
		},
		{
			name:  "missing entry close",
			input: "@misc{k, title = {x}\n@misc{k2,}",
			codes: []Code{CodeMissingEntryClose},
			keys:  []string{"k2"},
		},
		{
			name:  "missing preamble close",
			input: `@preamble{"a" "b"}`,
			codes: []Code{CodeMissingPreambleClose},
		},
		{
			name:  "empty key allowed",
			input: `@misc{, title = x}`,
			keys:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := parse(t, tt.input)

			if got := codes(db); !slices.Equal(got, tt.codes) {
				t.Errorf("codes = %v, want %v", got, tt.codes)
			}

			if got := keys(db); !slices.Equal(got, tt.keys) {
				t.Errorf("keys = %q, want %q", got, tt.keys)
			}
		})
	}
}

func TestParseDiagnosticPosition(t *testing.T) {
	db := parse(t, "@misc{a,}\n\n  @misc{b, title = {x} note = {y}}")

	if len(db.Diagnostics) != 1 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	d := db.Diagnostics[0]
	if d.Pos.Line != 3 || d.Pos.Column != 24 {
		t.Errorf("position = %v, want 3:24", d.Pos)
	}

	if want := "3:24: error: expected ',' between fields"; d.String() != want {
		t.Errorf("String() = %q, want %q", d.String(), want)
	}
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := Parse(ctx, "@misc{a,}")
	if len(db.Entries) != 0 {
		t.Errorf("canceled parse produced %d entries", len(db.Entries))
	}
}

func TestParseCrossrefKeyCase(t *testing.T) {
	db := parse(t, `
@book{Foo, title = {A}, publisher = {P}, year = 1}
@book{FOO, title = {B}, publisher = {P}, year = 2}
@inbook{c, crossref = {foo}, chapter = {1}}
@inbook{d, crossref = {FOO}, chapter = {2}}`)

	if len(db.Diagnostics) != 0 {
		t.Fatalf("diagnostics: %v", db.Diagnostics)
	}

	for range 20 {
		c, err := db.Resolve("c", WithRefresh(true))
		if err != nil {
			t.Fatal(err)
		}

		if _, ok := c.Field("title"); ok {
			t.Fatal("crossref {foo} inherited from a key of different case")
		}

		d, err := db.Resolve("d", WithRefresh(true))
		if err != nil {
			t.Fatal(err)
		}

		if got, _ := d.Field("title"); got.Raw() != "B" {
			t.Fatalf("crossref {FOO} title = %q, want B", got.Raw())
		}
	}
}

func TestParseRecoversAfterUnclosed(t *testing.T) {
	tests := []struct {
		src  string
		code Code
	}{
		{src: "@misc{a, title = {x\n", code: CodeUnclosedBrace},
		{src: "@misc{a, title = \"{\"}\n", code: CodeUnterminatedQuote},
		{src: "@comment{x\n", code: CodeUnterminatedComment},
		{src: "@comment(x {\n", code: CodeUnterminatedComment},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			db := parse(t, tt.src+"@misc{b, title = {ok}}")

			if got := codes(db); len(got) == 0 || got[0] != tt.code {
				t.Errorf("codes = %v, want %v first", got, tt.code)
			}

			if _, ok := db.Entry("b"); !ok {
				t.Errorf("entry after the unclosed command was lost: %v", keys(db))
			}
		})
	}
}

// Runs of unclosed commands must cost time linear in their length.
func TestParseUnclosedLinear(t *testing.T) {
	if testing.Short() {
		t.Skip("timing")
	}

	const (
		n      = 4000
		factor = 8
	)

	elapsed := func(src string) time.Duration {
		var best time.Duration

		for i := range 5 {
			start := time.Now()
			Parse(context.Background(), src)

			if d := time.Since(start); i == 0 || d < best {
				best = d
			}
		}

		return max(best, time.Microsecond)
	}

	for _, unit := range []string{
		"@a{k,f={",
		`@a{k,f="`,
		`@a{k,f="{`,
		"@comment{",
		"@comment(",
		"@string{s={",
	} {
		t.Run(unit, func(t *testing.T) {
			small := elapsed(strings.Repeat(unit, n))
			large := elapsed(strings.Repeat(unit, n*factor))

			if ratio := float64(large) / float64(small); ratio > 3*factor {
				t.Errorf("%dx input took %.1fx time (%v vs %v)", factor, ratio, large, small)
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"",
		"@misc{k, title = {x}}",
		"@string{a = b # c} @preamble{a}",
		"@comment(x (y) {z}) junk @",
		`@article{title = "a}b" # 12, year = }`,
		"@book(k, author = {A{B}, title = \"q\"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		db := Parse(context.Background(), input)

		for _, d := range db.Diagnostics {
			if d.Pos.Offset < 0 || d.Pos.Offset > len(input) {
				t.Fatalf("diagnostic %v out of range", d)
			}
		}

		for _, e := range db.ResolveAll() {
			for name, v := range e.Fields() {
				if !isBalanced(v.Raw()) {
					t.Fatalf("field %s of %q is not balanced: %q", name, e.ID(), v.Raw())
				}
			}
		}

		db.Preamble.Resolve()
	})
}

func benchmarkSource(n int) string {
	var sb strings.Builder

	sb.WriteString("@string{pub = {Addison-Wesley}}\n")

	for i := range n {
		fmt.Fprintf(&sb, `@book{key%d,
  author    = {Donald E. Knuth and {\"O}rs {\'E}l{\'e}ment},
  title     = "The {\TeX}book, Volume %d",
  publisher = pub,
  year      = %d,
  month     = jan # "~1",
}
`, i, i, 1980+i%40)
	}

	return sb.String()
}

func BenchmarkParse(b *testing.B) {
	src := benchmarkSource(500)

	b.SetBytes(int64(len(src)))
	b.ReportAllocs()

	for b.Loop() {
		Parse(context.Background(), src)
	}
}

func BenchmarkResolveAll(b *testing.B) {
	db := Parse(context.Background(), benchmarkSource(500))

	b.ReportAllocs()

	for b.Loop() {
		db.ResolveAll(WithMacros(Months), WithRefresh(true))
	}
}
