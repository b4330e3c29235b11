package bib

import (
	"log/slog"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Code identifies the kind of a [Diagnostic]. The zero value means success.
type Code int

// Diagnostic codes.
const (
	CodeSuccess Code = iota
	CodeMissingTypeID
	CodeInvalidTypeID
	CodeInvalidEntryKey
	CodeMissingEntryKey
	CodeMissingStringID
	CodeInvalidStringID
	CodeMissingFieldID
	CodeInvalidFieldID
	CodeMissingOpenDelimiter
	CodeMissingEntryClose
	CodeMissingPreambleClose
	CodeMissingStringClose
	CodeMismatchedCloseDelimiter
	CodeMissingFieldEquals
	CodeMissingStringEquals
	CodeMissingKeyComma
	CodeMissingFieldComma
	CodeDuplicateEntryKey
	CodeDuplicateStringID
	CodeDuplicateFieldID
	CodeUnterminatedComment
	CodeUnclosedBrace
	CodeOutstandingBrace
	CodeUnterminatedQuote
	CodeMissingValue
	CodeMissingConcatOperand
	CodeUnexpectedEOF

	numCodes
)

var codeText = [numCodes]string{
	CodeSuccess:                  "success",
	CodeMissingTypeID:            "missing entry type after '@'",
	CodeInvalidTypeID:            "invalid entry type",
	CodeInvalidEntryKey:          "invalid entry key",
	CodeMissingEntryKey:          "missing entry key",
	CodeMissingStringID:          "missing string identifier",
	CodeInvalidStringID:          "invalid string identifier",
	CodeMissingFieldID:           "missing field name",
	CodeInvalidFieldID:           "invalid field name",
	CodeMissingOpenDelimiter:     "expected '{' or '(' after entry type",
	CodeMissingEntryClose:        "entry is not closed",
	CodeMissingPreambleClose:     "preamble is not closed",
	CodeMissingStringClose:       "string definition is not closed",
	CodeMismatchedCloseDelimiter: "closing delimiter does not match opening delimiter",
	CodeMissingFieldEquals:       "expected '=' after field name",
	CodeMissingStringEquals:      "expected '=' after string identifier",
	CodeMissingKeyComma:          "expected ',' after entry key",
	CodeMissingFieldComma:        "expected ',' between fields",
	CodeDuplicateEntryKey:        "duplicate entry key",
	CodeDuplicateStringID:        "duplicate string identifier",
	CodeDuplicateFieldID:         "duplicate field name",
	CodeUnterminatedComment:      "unterminated comment",
	CodeUnclosedBrace:            "unclosed '{'",
	CodeOutstandingBrace:         "unmatched '}'",
	CodeUnterminatedQuote:        "unterminated quoted literal",
	CodeMissingValue:             "expected literal, number or string reference",
	CodeMissingConcatOperand:     "expected operand after '#'",
	CodeUnexpectedEOF:            "unexpected end of input",
}

// String returns the human-readable description of the code.
func (c Code) String() string {
	if c >= 0 && c < numCodes {
		return codeText[c]
	}

	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// Severity reports whether the command that produced a diagnostic with this
// code was kept ([SeverityWarning]) or discarded ([SeverityError]).
func (c Code) Severity() Severity {
	switch c {
	case CodeSuccess:
		return SeverityNone
	case CodeMissingEntryKey, CodeDuplicateEntryKey, CodeDuplicateStringID,
		CodeDuplicateFieldID, CodeOutstandingBrace:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Severity classifies diagnostics.
type Severity int

// Severity levels.
const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}

	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

// Position represents a location in source text.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number (in runes), starting at 1
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Diagnostic is a single problem found while parsing a database.
type Diagnostic struct {
	Code Code
	Pos  Position
}

// String formats the diagnostic as "line:col: severity: description".
func (d Diagnostic) String() string {
	return d.Pos.String() + ": " + d.Code.Severity().String() + ": " + d.Code.String()
}

// Error implements the error interface.
func (d Diagnostic) Error() string { return d.String() }

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("code", int(d.Code)),
		slog.String("message", d.Code.String()),
		slog.String("severity", d.Code.Severity().String()),
		slog.Int("line", d.Pos.Line),
		slog.Int("column", d.Pos.Column),
		slog.Int("offset", d.Pos.Offset),
	)
}

// lineTable maps byte offsets to line and column numbers.
type lineTable struct {
	src    string
	starts []int
}

func newLineTable(src string) lineTable {
	starts := []int{0}

	for i := range len(src) {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return lineTable{src: src, starts: starts}
}

func (t lineTable) position(offset int) Position {
	offset = max(0, min(offset, len(t.src)))
	line := sort.Search(len(t.starts), func(i int) bool {
		return t.starts[i] > offset
	})
	col := utf8.RuneCountInString(t.src[t.starts[line-1]:offset]) + 1

	return Position{Offset: offset, Line: line, Column: col}
}
