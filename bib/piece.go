package bib

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Case is the letter case BibTeX attributes to a piece of text.
type Case int

// Case values.
const (
	CaseUnknown Case = iota
	CaseLower
	CaseUpper
)

func (c Case) String() string {
	switch c {
	case CaseLower:
		return "lower"
	case CaseUpper:
		return "upper"
	}

	return "unknown"
}

// Kind discriminates the three piece variants.
type Kind int

// Piece kinds.
const (
	KindText Kind = iota
	KindSpecial
	KindBraced
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSpecial:
		return "special"
	case KindBraced:
		return "braced"
	}

	return "invalid"
}

// Piece is one component of a [Literal]. All derived values are computed
// when the piece is constructed.
type Piece interface {
	// Kind reports the variant.
	Kind() Kind
	// Raw returns the source text, including the enclosing braces of
	// special and braced pieces.
	Raw() string
	// Value returns the text without the enclosing braces.
	Value() string
	// Length is the number of characters text.length$ counts.
	Length() int
	// Case is the case of the first letter, or CaseUnknown.
	Case() Case
	// Purified is the purify$ form, keeping non-ASCII characters.
	Purified() string
	// PurifiedPedantic is the purify$ form restricted to ASCII.
	PurifiedPedantic() string
}

// TextPiece is plain text outside any braces.
type TextPiece struct {
	text     string
	length   int
	cs       Case
	purified string
	pedantic string
}

// NewText returns a text piece. s must not contain braces; text with braces
// is expressed with [ParseLiteral].
func NewText(s string) TextPiece {
	return TextPiece{
		text:     s,
		length:   utf8.RuneCountInString(s),
		cs:       caseOf(s),
		purified: purifyPlain(s, false),
		pedantic: purifyPlain(s, true),
	}
}

func (p TextPiece) Kind() Kind               { return KindText }
func (p TextPiece) Raw() string              { return p.text }
func (p TextPiece) Value() string            { return p.text }
func (p TextPiece) Length() int              { return p.length }
func (p TextPiece) Case() Case               { return p.cs }
func (p TextPiece) Purified() string         { return p.purified }
func (p TextPiece) PurifiedPedantic() string { return p.pedantic }

// SpecialPiece is a brace group at depth zero whose content starts with a
// backslash, such as {\"o} or {\ss}. BibTeX treats it as one character.
type SpecialPiece struct {
	content  string
	cs       Case
	purified string
	pedantic string
}

// NewSpecial returns a special character piece for content, the text between
// the braces. Unbalanced braces in content are repaired, and content that
// does not start with a backslash is prefixed with \relax so the piece stays
// a special character when re-parsed.
func NewSpecial(content string) SpecialPiece {
	content = rebalance(content)

	switch {
	case content == "":
		content = `\relax`
	case content[0] == '\\':
	case isSpace(content[0]):
		content = `\relax{}` + content
	default:
		content = `\relax ` + content
	}

	return newSpecial(content)
}

// newSpecial builds a piece from balanced content starting with a backslash.
func newSpecial(content string) SpecialPiece {
	return SpecialPiece{
		content:  content,
		cs:       specialCase(content),
		purified: purifySpecial(content, false),
		pedantic: purifySpecial(content, true),
	}
}

func (p SpecialPiece) Kind() Kind               { return KindSpecial }
func (p SpecialPiece) Raw() string              { return "{" + p.content + "}" }
func (p SpecialPiece) Value() string            { return p.content }
func (p SpecialPiece) Length() int              { return 1 }
func (p SpecialPiece) Case() Case               { return p.cs }
func (p SpecialPiece) Purified() string         { return p.purified }
func (p SpecialPiece) PurifiedPedantic() string { return p.pedantic }

// BracedPiece is a brace group at depth zero that is not a special
// character. Its content is protected from case changes.
type BracedPiece struct {
	content  string
	length   int
	cs       Case
	purified string
	pedantic string
}

// NewBraced returns a braced piece for content, the text between the braces.
// Unbalanced braces in content are repaired. Content starting with a
// backslash is wrapped in one more brace pair so the piece does not turn into
// a special character.
func NewBraced(content string) BracedPiece {
	content = rebalance(content)
	if strings.HasPrefix(content, `\`) {
		content = "{" + content + "}"
	}

	return newBraced(content)
}

func newBraced(content string) BracedPiece {
	return BracedPiece{
		content:  content,
		length:   countUnbraced(content),
		cs:       CaseUnknown,
		purified: purifyPlain(content, false),
		pedantic: purifyPlain(content, true),
	}
}

func (p BracedPiece) Kind() Kind               { return KindBraced }
func (p BracedPiece) Raw() string              { return "{" + p.content + "}" }
func (p BracedPiece) Value() string            { return p.content }
func (p BracedPiece) Length() int              { return p.length }
func (p BracedPiece) Case() Case               { return p.cs }
func (p BracedPiece) Purified() string         { return p.purified }
func (p BracedPiece) PurifiedPedantic() string { return p.pedantic }

// groupPiece classifies balanced brace-group content found at depth zero.
func groupPiece(content string) Piece {
	if strings.HasPrefix(content, `\`) {
		return newSpecial(content)
	}

	return newBraced(content)
}

// rebalance inserts '{' before every unmatched '}' and appends '}' for every
// unclosed '{'.
func rebalance(s string) string {
	if isBalanced(s) {
		return s
	}

	var (
		b     strings.Builder
		depth int
	)

	for i := range len(s) {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				b.WriteByte('{')
			} else {
				depth--
			}
		}

		b.WriteByte(s[i])
	}

	b.WriteString(strings.Repeat("}", depth))

	return b.String()
}

func isBalanced(s string) bool {
	depth := 0

	for i := range len(s) {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth--; depth < 0 {
				return false
			}
		}
	}

	return depth == 0
}

func countUnbraced(s string) int {
	n := 0

	for _, r := range s {
		if r != '{' && r != '}' {
			n++
		}
	}

	return n
}

// caseOf returns the case of the first letter in s.
func caseOf(s string) Case {
	for _, r := range s {
		if c := runeCase(r); c != CaseUnknown {
			return c
		}
	}

	return CaseUnknown
}

func runeCase(r rune) Case {
	switch {
	case unicode.IsUpper(r):
		return CaseUpper
	case unicode.IsLower(r):
		return CaseLower
	}

	return CaseUnknown
}

// Control sequences purify$ reduces to their letters instead of dropping.
var specialLetters = map[string]Case{
	"i": CaseLower, "j": CaseLower, "oe": CaseLower, "ae": CaseLower,
	"aa": CaseLower, "o": CaseLower, "l": CaseLower, "ss": CaseLower,
	"OE": CaseUpper, "AE": CaseUpper, "AA": CaseUpper, "O": CaseUpper,
	"L": CaseUpper,
}

// controlWord returns the run of ASCII letters in s starting at i.
func controlWord(s string, i int) string {
	j := i
	for j < len(s) && isLetter(s[j]) {
		j++
	}

	return s[i:j]
}

// specialCase determines the case of a special character: known control
// sequences decide directly, otherwise the first letter outside any control
// sequence does.
func specialCase(content string) Case {
	if c, ok := specialLetters[controlWord(content, 1)]; ok {
		return c
	}

	for i := 0; i < len(content); {
		if content[i] == '\\' {
			i++
			if word := controlWord(content, i); word != "" {
				i += len(word)
			} else if i < len(content) {
				_, size := utf8.DecodeRuneInString(content[i:])
				i += size
			}

			continue
		}

		r, size := utf8.DecodeRuneInString(content[i:])
		if c := runeCase(r); c != CaseUnknown {
			return c
		}

		i += size
	}

	return CaseUnknown
}

// purifyPlain applies purify$ to text outside special characters. Braces are
// dropped, whitespace, '~' and '-' become spaces, ASCII letters, digits and
// spaces are kept and other ASCII is dropped. Non-ASCII is kept unless
// pedantic.
func purifyPlain(s string, pedantic bool) string {
	var b strings.Builder

	b.Grow(len(s))

	for i := range len(s) {
		c := s[i]

		switch {
		case c >= utf8.RuneSelf:
			if !pedantic {
				b.WriteByte(c)
			}
		case isSpace(c), c == '~', c == '-':
			b.WriteByte(' ')
		case isAlnum(c):
			b.WriteByte(c)
		}
	}

	return b.String()
}

// purifySpecial applies purify$ to the content of a special character.
// Known control sequences keep their first letter (two for oe, OE, ae, AE,
// ss). Other control sequences, punctuation and whitespace are dropped while
// letters and digits are kept.
func purifySpecial(content string, pedantic bool) string {
	var b strings.Builder

	for i := 0; i < len(content); {
		if content[i] == '\\' {
			word := controlWord(content, i+1)
			if _, ok := specialLetters[word]; ok {
				b.WriteByte(word[0])

				switch word {
				case "oe", "OE", "ae", "AE", "ss":
					b.WriteByte(word[1])
				}
			}

			i += 1 + len(word)

			continue
		}

		c := content[i]

		switch {
		case c >= utf8.RuneSelf:
			if !pedantic {
				b.WriteByte(c)
			}
		case isAlnum(c):
			b.WriteByte(c)
		}

		i++
	}

	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}

func isLetter(c byte) bool { return c|0x20 >= 'a' && c|0x20 <= 'z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool { return isLetter(c) || isDigit(c) }
