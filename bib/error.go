package bib

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput      = NewError("failed to read input")
	ErrEntryNotFound  = NewError("entry not found")
	ErrFilterCompile  = NewError("filter compilation failed")
	ErrFilterEvaluate = NewError("filter evaluation failed")
	ErrFilterResult   = NewError("filter did not produce a boolean")
	ErrInvalidSortKey = NewError("invalid sort key")
	ErrInvalidFormat  = NewError("invalid output format")
	ErrDiagnostics    = NewError("database has diagnostics")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
// Errors produced by Wrap and With keep the identity of their origin.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg != "" && t.msg == e.msg && t.err == nil
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached with With.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// DiagnosticError reports the diagnostics of a parsed database with source
// context around the first one.
type DiagnosticError struct {
	Diagnostics []Diagnostic
	Source      string
	Name        string
}

// NewDiagnosticError returns nil when diags is empty.
func NewDiagnosticError(name, source string, diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}

	return &DiagnosticError{Diagnostics: diags, Source: source, Name: name}
}

// Error implements the error interface.
func (e *DiagnosticError) Error() string {
	if len(e.Diagnostics) == 0 {
		return ErrDiagnostics.Error()
	}

	first := e.Diagnostics[0]

	var buf strings.Builder

	if e.Name != "" {
		buf.WriteString(e.Name)
		buf.WriteByte(':')
	}

	buf.WriteString(first.String())

	if n := len(e.Diagnostics) - 1; n > 0 {
		buf.WriteString(" (and ")
		buf.WriteString(strconv.Itoa(n))
		buf.WriteString(" more)")
	}

	if snippet := e.Snippet(first.Pos); snippet != "" {
		buf.WriteByte('\n')
		buf.WriteString(snippet)
	}

	return buf.String()
}

// Unwrap lets errors.Is match ErrDiagnostics.
func (e *DiagnosticError) Unwrap() error { return ErrDiagnostics }

// Snippet renders the source line containing pos with a marker under the
// offending column.
func (e *DiagnosticError) Snippet(pos Position) string {
	lines := strings.Split(e.Source, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	num := strconv.Itoa(pos.Line)

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(strings.TrimRight(lines[pos.Line-1], "\r"))
	src.WriteByte('\n')

	// 2 leading spaces + " | "
	padding := strings.Repeat(" ", len(num)+5)
	if pos.Column > 0 {
		padding += strings.Repeat(" ", pos.Column-1)
	}

	src.WriteString(padding)
	src.WriteString("^")

	return src.String()
}
