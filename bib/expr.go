package bib

import "strings"

// Summand is one operand of a [StringExpr]: a [Literal] or a *[StringRef].
type Summand interface {
	// source returns the operand as it is written in a database.
	source() string
	resolve(r *resolver) Literal
}

func (l Literal) source() string {
	if l.raw != "" && strings.Trim(l.raw, "0123456789") == "" {
		return l.raw
	}

	return "{" + l.raw + "}"
}

func (l Literal) resolve(*resolver) Literal { return l }

// Macros maps style macro names, such as the month abbreviations, to their
// values.
type Macros map[string]Literal

// Dictionary holds the @string definitions of a database, keyed by lowercase
// identifier.
type Dictionary map[string]*StringExpr

// Lookup returns the definition of id, ignoring case.
func (d Dictionary) Lookup(id string) (*StringExpr, bool) {
	e, ok := d[foldID(id)]

	return e, ok
}

func foldID(id string) string { return strings.ToLower(id) }

// StringRef is a reference to an @string definition or a style macro.
type StringRef struct {
	id   string
	dict Dictionary
	memo memo[Literal]
}

// NewStringRef returns a reference to id in dict. The dictionary is consulted
// at resolution time, so definitions added later are visible.
func NewStringRef(id string, dict Dictionary) *StringRef {
	return &StringRef{id: foldID(id), dict: dict}
}

// ID returns the lowercase identifier.
func (s *StringRef) ID() string { return s.id }

func (s *StringRef) String() string { return s.id }

func (s *StringRef) source() string { return s.id }

// Resolve returns the value of the reference. A style macro of the same name
// overrides the dictionary, and an undefined name resolves to the empty
// literal.
func (s *StringRef) Resolve(opts ...ResolveOption) Literal {
	return s.resolve(newResolver(opts...))
}

// Unresolve clears the cached value. It returns false if a resolution is in
// flight.
func (s *StringRef) Unresolve() bool { return s.memo.clear() }

func (s *StringRef) resolve(r *resolver) Literal {
	if v, ok := s.memo.load(); ok && r.cached(s) {
		return v
	}

	if !r.enter(s) {
		return Literal{}
	}

	defer r.leave(s)

	s.memo.begin()

	var v Literal

	if e, ok := s.dict.Lookup(s.id); ok {
		v = e.resolve(r)
	}

	if m, ok := r.macros[s.id]; ok {
		v = m
	}

	s.memo.end(v)

	return v
}

// StringExpr is an unresolved concatenation of summands: a field value, an
// @string body or the preamble.
type StringExpr struct {
	summands []Summand
	memo     memo[Literal]
}

// NewStringExpr returns the concatenation of summands.
func NewStringExpr(summands ...Summand) *StringExpr {
	return &StringExpr{summands: summands}
}

// Summands returns the operands in order.
func (e *StringExpr) Summands() []Summand {
	return append([]Summand(nil), e.summands...)
}

// String returns the expression as it is written in a database, such as
// jan # {~1}.
func (e *StringExpr) String() string {
	if len(e.summands) == 0 {
		return "{}"
	}

	part := make([]string, len(e.summands))
	for i, s := range e.summands {
		part[i] = s.source()
	}

	return strings.Join(part, " # ")
}

// Resolve returns the concatenation of the resolved summands.
func (e *StringExpr) Resolve(opts ...ResolveOption) Literal {
	return e.resolve(newResolver(opts...))
}

// Unresolve clears the cached value. It returns false if a resolution is in
// flight.
func (e *StringExpr) Unresolve() bool { return e.memo.clear() }

// unresolveAll clears the expression and every reference it contains.
func (e *StringExpr) unresolveAll() bool {
	ok := e.memo.clear()

	for _, s := range e.summands {
		if ref, isRef := s.(*StringRef); isRef {
			ok = ref.Unresolve() && ok
		}
	}

	return ok
}

func (e *StringExpr) resolve(r *resolver) Literal {
	if v, ok := e.memo.load(); ok && r.cached(e) {
		return v
	}

	if !r.enter(e) {
		return Literal{}
	}

	defer r.leave(e)

	e.memo.begin()

	var pieces []Piece
	for _, s := range e.summands {
		pieces = append(pieces, s.resolve(r).pieces...)
	}

	v := NewLiteral(pieces...)

	e.memo.end(v)

	return v
}
