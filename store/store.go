// Package store persists resolved bibliography entries in SQLite.
//
// Every call to [SQLite.Import] records one batch identified by a ULID.
// A batch remembers the checksum of the source it was read from, so importing
// the same source text twice is a no-op.
package store

import (
	"strings"
	"time"
)

// Import describes one imported batch.
type Import struct {
	ID       string
	Source   string
	Checksum uint64
	Count    int
	Created  time.Time
}

// Field is a stored field with its raw resolved value.
type Field struct {
	Name  string
	Value string
}

// Record is one stored entry. Fields are in source order.
type Record struct {
	Batch  string
	Type   string
	Key    string
	Fields []Field
}

// Field returns the value of the named field.
func (r Record) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}

	return "", false
}

// String renders the record as a BibTeX entry.
func (r Record) String() string {
	var sb strings.Builder

	sb.WriteString("@" + r.Type + "{" + r.Key)

	for _, f := range r.Fields {
		sb.WriteString(",\n  " + f.Name + " = {" + f.Value + "}")
	}

	sb.WriteString("\n}")

	return sb.String()
}
