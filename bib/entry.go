package bib

import (
	"iter"
	"slices"
	"strings"
)

// Field is a named, unresolved field value.
type Field struct {
	Name  string
	Value *StringExpr
}

// EntryData is an entry as written in a database: a type, a key and
// unresolved field values. It is immutable once built.
type EntryData struct {
	typ    string
	id     string
	fields map[string]*StringExpr
	order  []string
	index  map[string]*EntryData
	pos    Position
	memo   memo[*Entry]
}

// NewEntryData returns an entry of type typ with key id. Type and field names
// are lowercased, and the first definition of a repeated field wins. index is
// the key table crossref parents are looked up in; it may be nil.
func NewEntryData(
	typ, id string,
	index map[string]*EntryData,
	fields ...Field,
) *EntryData {
	e := &EntryData{
		typ:    foldID(typ),
		id:     id,
		fields: make(map[string]*StringExpr, len(fields)),
		order:  make([]string, 0, len(fields)),
		index:  index,
	}

	for _, f := range fields {
		name := foldID(f.Name)
		if _, dup := e.fields[name]; dup {
			continue
		}

		value := f.Value
		if value == nil {
			value = NewStringExpr()
		}

		e.fields[name] = value
		e.order = append(e.order, name)
	}

	return e
}

// Type returns the lowercase entry type.
func (e *EntryData) Type() string { return e.typ }

// ID returns the entry key.
func (e *EntryData) ID() string { return e.id }

// Pos returns the position of the entry's '@' in its database.
func (e *EntryData) Pos() Position { return e.pos }

// Len returns the number of fields.
func (e *EntryData) Len() int { return len(e.order) }

// Field returns the unresolved value of the named field.
func (e *EntryData) Field(name string) (*StringExpr, bool) {
	v, ok := e.fields[foldID(name)]

	return v, ok
}

// FieldNames returns the field names in definition order.
func (e *EntryData) FieldNames() []string { return slices.Clone(e.order) }

// Fields iterates the fields in definition order.
func (e *EntryData) Fields() iter.Seq2[string, *StringExpr] {
	return func(yield func(string, *StringExpr) bool) {
		for _, name := range e.order {
			if !yield(name, e.fields[name]) {
				return
			}
		}
	}
}

// Resolve resolves every field and completes the result with the fields of
// the crossref parent that the entry does not define itself. Cached results
// are reused unless WithRefresh is given.
func (e *EntryData) Resolve(opts ...ResolveOption) *Entry {
	if v, ok := e.resolve(newResolver(opts...)); ok {
		return v
	}

	return &Entry{data: e, typ: e.typ, id: e.id}
}

// Unresolve clears the cached entry. It returns false if a resolution is in
// flight.
func (e *EntryData) Unresolve() bool { return e.memo.clear() }

func (e *EntryData) unresolveAll() bool {
	ok := e.memo.clear()
	for _, v := range e.fields {
		ok = v.unresolveAll() && ok
	}

	return ok
}

// parent returns the crossref target indexed under key. Keys are case
// sensitive.
func (e *EntryData) parent(key string) *EntryData {
	if key == "" || e.index == nil {
		return nil
	}

	return e.index[key]
}

func (e *EntryData) resolve(r *resolver) (*Entry, bool) {
	if v, ok := e.memo.load(); ok && r.cached(e) {
		return v, true
	}

	if !r.enter(e) {
		return nil, false
	}

	defer r.leave(e)

	e.memo.begin()

	out := &Entry{
		data:   e,
		typ:    e.typ,
		id:     e.id,
		fields: make(map[string]Literal, len(e.order)),
		order:  slices.Clone(e.order),
	}

	for _, name := range e.order {
		out.fields[name] = e.fields[name].resolve(r)
	}

	if ref, ok := out.fields["crossref"]; ok {
		if p := e.parent(strings.TrimSpace(ref.Raw())); p != nil {
			if pe, ok := p.resolve(r); ok {
				for _, name := range pe.order {
					if _, has := out.fields[name]; !has {
						out.fields[name] = pe.fields[name]
						out.order = append(out.order, name)
					}
				}
			}
		}
	}

	e.memo.end(out)

	return out, true
}

// FieldValue is a named, resolved field value.
type FieldValue struct {
	Name  string
	Value Literal
}

// Entry is a resolved entry. It is immutable.
type Entry struct {
	data   *EntryData
	typ    string
	id     string
	fields map[string]Literal
	order  []string
}

// NewEntry returns a resolved entry. Names are lowercased and the first
// definition of a repeated field wins.
func NewEntry(typ, id string, fields ...FieldValue) *Entry {
	e := &Entry{
		typ:    foldID(typ),
		id:     id,
		fields: make(map[string]Literal, len(fields)),
		order:  make([]string, 0, len(fields)),
	}

	for _, f := range fields {
		name := foldID(f.Name)
		if _, dup := e.fields[name]; dup {
			continue
		}

		e.fields[name] = f.Value
		e.order = append(e.order, name)
	}

	return e
}

// Type returns the lowercase entry type.
func (e *Entry) Type() string { return e.typ }

// ID returns the entry key.
func (e *Entry) ID() string { return e.id }

// Source returns the entry data e was resolved from, or nil if e was built
// with NewEntry.
func (e *Entry) Source() *EntryData { return e.data }

// Len returns the number of fields, inherited ones included.
func (e *Entry) Len() int { return len(e.order) }

// Field returns the resolved value of the named field.
func (e *Entry) Field(name string) (Literal, bool) {
	v, ok := e.fields[foldID(name)]

	return v, ok
}

// Has reports whether the named field is present.
func (e *Entry) Has(name string) bool {
	_, ok := e.fields[foldID(name)]

	return ok
}

// FieldNames returns the field names: own fields in definition order
// followed by inherited ones.
func (e *Entry) FieldNames() []string { return slices.Clone(e.order) }

// Fields iterates the fields in the order of FieldNames.
func (e *Entry) Fields() iter.Seq2[string, Literal] {
	return func(yield func(string, Literal) bool) {
		for _, name := range e.order {
			if !yield(name, e.fields[name]) {
				return
			}
		}
	}
}
