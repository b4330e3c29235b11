package bib

import "strings"

// ParseLiteral splits s into pieces. It never fails: an unmatched '}' at
// depth zero becomes an empty braced piece, and a brace group left open at
// the end of s is closed. The returned code is CodeSuccess,
// CodeOutstandingBrace or CodeUnclosedBrace, and pos is the byte offset of
// the first problem, or -1.
func ParseLiteral(s string) (lit Literal, code Code, pos int) {
	var (
		pieces []Piece
		depth  int
		mark   int // start of pending text, or of the open group
	)

	code, pos = CodeSuccess, -1

	for i := range len(s) {
		switch s[i] {
		case '{':
			if depth == 0 {
				pieces = appendText(pieces, s[mark:i])
				mark = i
			}

			depth++
		case '}':
			if depth == 0 {
				pieces = appendText(pieces, s[mark:i])
				pieces = append(pieces, newBraced(""))
				mark = i + 1

				if code == CodeSuccess {
					code, pos = CodeOutstandingBrace, i
				}

				continue
			}

			if depth--; depth == 0 {
				pieces = append(pieces, groupPiece(s[mark+1:i]))
				mark = i + 1
			}
		}
	}

	if depth > 0 {
		pieces = append(pieces,
			groupPiece(s[mark+1:]+strings.Repeat("}", depth-1)))

		if code == CodeSuccess {
			code, pos = CodeUnclosedBrace, mark
		}
	} else {
		pieces = appendText(pieces, s[mark:])
	}

	return NewLiteral(pieces...), code, pos
}

func appendText(pieces []Piece, s string) []Piece {
	if s == "" {
		return pieces
	}

	return append(pieces, NewText(s))
}
