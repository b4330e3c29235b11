package bib

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Literal is an immutable sequence of pieces in normal form: adjacent text
// pieces are merged and empty text pieces are dropped.
//
// The zero value is the empty literal.
type Literal struct {
	pieces   []Piece
	raw      string
	length   int
	cs       Case
	purified string
	pedantic string
}

// NewLiteral returns the normalized literal made of pieces.
func NewLiteral(pieces ...Piece) Literal {
	norm := make([]Piece, 0, len(pieces))

	for _, p := range pieces {
		if p == nil {
			continue
		}

		if t, ok := p.(TextPiece); ok {
			if t.text == "" {
				continue
			}

			if n := len(norm); n > 0 {
				if prev, ok := norm[n-1].(TextPiece); ok {
					norm[n-1] = NewText(prev.text + t.text)

					continue
				}
			}
		}

		norm = append(norm, p)
	}

	if len(norm) == 0 {
		return Literal{}
	}

	var raw, purified, pedantic strings.Builder

	l := Literal{pieces: norm}

	for _, p := range norm {
		raw.WriteString(p.Raw())
		purified.WriteString(p.Purified())
		pedantic.WriteString(p.PurifiedPedantic())

		l.length += p.Length()

		if l.cs == CaseUnknown {
			l.cs = p.Case()
		}
	}

	l.raw = raw.String()
	l.purified = purified.String()
	l.pedantic = pedantic.String()

	return l
}

// Pieces returns a copy of the literal's pieces.
func (l Literal) Pieces() []Piece { return slices.Clone(l.pieces) }

// Len returns the number of pieces.
func (l Literal) Len() int { return len(l.pieces) }

// Raw returns the concatenated raw text of all pieces.
func (l Literal) Raw() string { return l.raw }

// String returns Raw.
func (l Literal) String() string { return l.raw }

// Length is the text.length$ of the literal.
func (l Literal) Length() int { return l.length }

// Case is the case of the first piece with a known case.
func (l Literal) Case() Case { return l.cs }

// Purified is the purify$ of the literal.
func (l Literal) Purified() string { return l.purified }

// PurifiedPedantic is the ASCII-only purify$ of the literal.
func (l Literal) PurifiedPedantic() string { return l.pedantic }

// IsEmpty reports whether the literal has no pieces.
func (l Literal) IsEmpty() bool { return len(l.pieces) == 0 }

// Equal reports whether l and o consist of the same pieces.
func (l Literal) Equal(o Literal) bool {
	return slices.Equal(l.pieces, o.pieces)
}

// Concat returns the normalized concatenation of l and others.
func (l Literal) Concat(others ...Literal) Literal {
	pieces := slices.Clone(l.pieces)
	for _, o := range others {
		pieces = append(pieces, o.pieces...)
	}

	return NewLiteral(pieces...)
}

// Prefix returns the literal made of the first n characters, as
// text.prefix$ counts them.
func (l Literal) Prefix(n int) Literal {
	lit, _, _ := ParseLiteral(l.PrefixRaw(n))

	return lit
}

// PrefixRaw returns the raw text of the first n characters. Braces do not
// count and a special character counts as one. Braces left open by the cut
// are closed.
func (l Literal) PrefixRaw(n int) string {
	if n <= 0 {
		return ""
	}

	var (
		s            = l.raw
		i, count, lv int
	)

	for i < len(s) && count < n {
		c := s[i]
		i++

		switch c {
		case '{':
			lv++

			if lv == 1 && i < len(s) && s[i] == '\\' {
				for i < len(s) && lv > 0 {
					switch s[i] {
					case '{':
						lv++
					case '}':
						lv--
					}

					i++
				}

				count++
			}
		case '}':
			if lv > 0 {
				lv--
			}
		default:
			if c >= utf8.RuneSelf {
				_, size := utf8.DecodeRuneInString(s[i-1:])
				i += size - 1
			}

			count++
		}
	}

	return s[:i] + strings.Repeat("}", lv)
}

// CaseMode selects the conversion change.case$ performs.
type CaseMode int

// Case conversion modes.
const (
	// CaseTitle lowercases everything except the first character and the
	// first character after a colon followed by whitespace.
	CaseTitle CaseMode = iota
	CaseToLower
	CaseToUpper
)

// ParseCaseMode maps the change.case$ specifiers "t", "l" and "u" (in either
// case) to a mode.
func ParseCaseMode(s string) (CaseMode, bool) {
	switch s {
	case "t", "T":
		return CaseTitle, true
	case "l", "L":
		return CaseToLower, true
	case "u", "U":
		return CaseToUpper, true
	}

	return 0, false
}

func (m CaseMode) String() string {
	switch m {
	case CaseTitle:
		return "t"
	case CaseToLower:
		return "l"
	case CaseToUpper:
		return "u"
	}

	return "?"
}

// ChangeCase converts the letters at brace depth zero, including the letters
// of special characters, the way change.case$ does. Braced pieces are left
// unchanged.
func (l Literal) ChangeCase(mode CaseMode) Literal {
	var (
		b         strings.Builder
		prevColon bool
		prevSpace bool
		at        int
	)

	keep := func() bool {
		return mode == CaseTitle && (at == 0 || (prevColon && prevSpace))
	}

	for _, p := range l.pieces {
		switch p := p.(type) {
		case TextPiece:
			for i := range len(p.text) {
				c := p.text[i]

				switch {
				case keep():
				case mode == CaseToUpper:
					c = toUpper(c)
				default:
					c = toLower(c)
				}

				b.WriteByte(c)

				switch {
				case c == ':':
					prevColon = true
				case isSpace(c):
				default:
					prevColon = false
				}

				prevSpace = isSpace(c)
				at++
			}

			continue
		case SpecialPiece:
			if keep() {
				b.WriteString(p.Raw())
			} else {
				b.WriteByte('{')
				b.WriteString(convertSpecial(p.content, mode == CaseToUpper))
				b.WriteByte('}')
			}
		default:
			b.WriteString(p.Raw())
		}

		prevColon, prevSpace = false, false
		at += len(p.Raw())
	}

	lit, _, _ := ParseLiteral(b.String())

	return lit
}

// convertSpecial converts the case of special character content. Known
// control sequences change case as words; in upper mode \i, \j and \ss lose
// their backslash and become I, J and SS.
func convertSpecial(content string, upper bool) string {
	var b strings.Builder

	for i := 0; i < len(content); {
		if content[i] != '\\' {
			if upper {
				b.WriteByte(toUpper(content[i]))
			} else {
				b.WriteByte(toLower(content[i]))
			}

			i++

			continue
		}

		word := controlWord(content, i+1)
		cs, known := specialLetters[word]

		switch {
		case !known:
			b.WriteString(content[i : i+1+len(word)])
		case upper && (word == "i" || word == "j" || word == "ss"):
			b.WriteString(strings.ToUpper(word))
		case upper && cs == CaseLower:
			b.WriteString(`\` + strings.ToUpper(word))
		case !upper && cs == CaseUpper:
			b.WriteString(`\` + strings.ToLower(word))
		default:
			b.WriteString(content[i : i+1+len(word)])
		}

		i += 1 + len(word)
	}

	return b.String()
}

// IsCompleteSentence reports whether the last character that is not a
// closing brace is '.', '?' or '!'. The empty literal is not a sentence.
func (l Literal) IsCompleteSentence() bool {
	s := strings.TrimRight(l.raw, "}")
	if s == "" {
		return false
	}

	switch s[len(s)-1] {
	case '.', '?', '!':
		return true
	}

	return false
}

// AddPeriod appends a period unless the literal is empty or already a
// complete sentence, as add.period$ does.
func (l Literal) AddPeriod() Literal {
	if l.IsEmpty() || l.IsCompleteSentence() {
		return l
	}

	return l.Concat(NewLiteral(NewText(".")))
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}

	return c
}
