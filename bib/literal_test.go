package bib

import "testing"

func mustLiteral(t testing.TB, raw string) Literal {
	t.Helper()

	lit, code, pos := ParseLiteral(raw)
	if code != CodeSuccess {
		t.Fatalf("ParseLiteral(%q) = %v at %d", raw, code, pos)
	}

	return lit
}

func TestNewLiteralNormalizes(t *testing.T) {
	lit := NewLiteral(
		NewText("a"),
		NewText(""),
		NewText("b"),
		NewBraced("c"),
		NewText(""),
	)

	if lit.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lit.Len())
	}

	if lit.Raw() != "ab{c}" {
		t.Errorf("Raw() = %q, want %q", lit.Raw(), "ab{c}")
	}

	if !lit.Equal(mustLiteral(t, "ab{c}")) {
		t.Error("normalized literal differs from parsed literal")
	}

	if !NewLiteral(NewText("")).IsEmpty() {
		t.Error("literal of an empty text piece is not empty")
	}

	if !NewLiteral().Equal(Literal{}) {
		t.Error("NewLiteral() differs from the zero Literal")
	}
}

func TestLiteralDerivedValues(t *testing.T) {
	lit := mustLiteral(t, `{\'E}cole {Polytechnique}`)

	if got := lit.Length(); got != 19 {
		t.Errorf("Length() = %d, want 19", got)
	}

	if got := lit.Case(); got != CaseUpper {
		t.Errorf("Case() = %v, want upper", got)
	}

	if got := lit.Purified(); got != "Ecole Polytechnique" {
		t.Errorf("Purified() = %q", got)
	}
}

func TestLiteralCase(t *testing.T) {
	tests := []struct {
		raw  string
		want Case
	}{
		{raw: "def", want: CaseLower},
		{raw: "{ABC} def", want: CaseLower},
		{raw: "{abc} DEF", want: CaseUpper},
		{raw: "{ABC}", want: CaseUnknown},
		{raw: `{ABC}{\'e}cole`, want: CaseLower},
		{raw: "12 {X} Y", want: CaseUpper},
		{raw: "", want: CaseUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := mustLiteral(t, tt.raw).Case(); got != tt.want {
				t.Errorf("Case() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLiteralPrefix(t *testing.T) {
	tests := []struct {
		raw  string
		n    int
		want string
	}{
		{raw: "abcdef", n: 3, want: "abc"},
		{raw: "abc", n: 0, want: ""},
		{raw: "abc", n: -1, want: ""},
		{raw: "abc", n: 10, want: "abc"},
		{raw: "ab{cd}ef", n: 3, want: "ab{c}"},
		{raw: "ab{cd}ef", n: 4, want: "ab{cd}"},
		{raw: `{\'E}cole`, n: 2, want: `{\'E}c`},
		{raw: `{\'E}cole`, n: 1, want: `{\'E}`},
		{raw: "{{a}b}c", n: 1, want: "{{a}}"},
		{raw: "éa", n: 1, want: "é"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			lit := mustLiteral(t, tt.raw)

			if got := lit.PrefixRaw(tt.n); got != tt.want {
				t.Errorf("PrefixRaw(%d) = %q, want %q", tt.n, got, tt.want)
			}

			if got := lit.Prefix(tt.n).Raw(); got != tt.want {
				t.Errorf("Prefix(%d).Raw() = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestLiteralChangeCase(t *testing.T) {
	tests := []struct {
		raw  string
		mode CaseMode
		want string
	}{
		{raw: "Hello World", mode: CaseTitle, want: "Hello world"},
		{raw: "The {GNU} Project: An Intro", mode: CaseTitle, want: "The {GNU} project: An intro"},
		{raw: "a: B c", mode: CaseTitle, want: "a: B c"},
		{raw: "a:B", mode: CaseTitle, want: "a:b"},
		{raw: "hello {World}", mode: CaseToUpper, want: "HELLO {World}"},
		{raw: "HeLLo", mode: CaseToLower, want: "hello"},
		{raw: `{\'E}cole`, mode: CaseToLower, want: `{\'e}cole`},
		{raw: `{\'E}cole`, mode: CaseTitle, want: `{\'E}cole`},
		{raw: `x {\AE}`, mode: CaseTitle, want: `x {\ae}`},
		{raw: `{\O}`, mode: CaseToLower, want: `{\o}`},
		{raw: `{\o}`, mode: CaseToUpper, want: `{\O}`},
		{raw: `{\ss}`, mode: CaseToUpper, want: `{SS}`},
		{raw: `{\i}`, mode: CaseToUpper, want: `{I}`},
		{raw: `{\v{c}}`, mode: CaseToUpper, want: `{\v{C}}`},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.raw, func(t *testing.T) {
			if got := mustLiteral(t, tt.raw).ChangeCase(tt.mode).Raw(); got != tt.want {
				t.Errorf("ChangeCase(%v) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestParseCaseMode(t *testing.T) {
	for _, s := range []string{"t", "T", "l", "L", "u", "U"} {
		if _, ok := ParseCaseMode(s); !ok {
			t.Errorf("ParseCaseMode(%q) failed", s)
		}
	}

	if _, ok := ParseCaseMode("x"); ok {
		t.Error(`ParseCaseMode("x") succeeded`)
	}
}

func TestLiteralSentence(t *testing.T) {
	tests := []struct {
		raw      string
		complete bool
		period   string
	}{
		{raw: "Hi.", complete: true, period: "Hi."},
		{raw: "{Hi.}", complete: true, period: "{Hi.}"},
		{raw: "Wow!", complete: true, period: "Wow!"},
		{raw: "Why?", complete: true, period: "Why?"},
		{raw: "Hi", complete: false, period: "Hi."},
		{raw: "{Hi}", complete: false, period: "{Hi}."},
		{raw: "", complete: false, period: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			lit := mustLiteral(t, tt.raw)

			if got := lit.IsCompleteSentence(); got != tt.complete {
				t.Errorf("IsCompleteSentence() = %v, want %v", got, tt.complete)
			}

			if got := lit.AddPeriod().Raw(); got != tt.period {
				t.Errorf("AddPeriod() = %q, want %q", got, tt.period)
			}
		})
	}
}

func TestLiteralConcat(t *testing.T) {
	a := mustLiteral(t, "foo ")
	b := mustLiteral(t, "bar{X}")

	got := a.Concat(b)
	if got.Raw() != "foo bar{X}" || got.Len() != 2 {
		t.Errorf("Concat() = %q with %d pieces", got.Raw(), got.Len())
	}
}
