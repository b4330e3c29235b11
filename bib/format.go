package bib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the database in BibTeX syntax without resolving anything:
// @comment bodies, the preamble, @string definitions and entries, in that
// order. Fields are indented by indent spaces, or written on one line if
// indent is not positive.
func (db *Database) Format(_ context.Context, w io.Writer, indent int) error {
	var blocks []string

	for _, c := range db.Comments {
		if c.Implicit {
			blocks = append(blocks, strings.TrimSpace(c.Text))
		} else {
			blocks = append(blocks, "@comment{"+c.Text+"}")
		}
	}

	if db.Preamble != nil && len(db.Preamble.summands) > 0 {
		blocks = append(blocks, "@preamble{"+db.Preamble.String()+"}")
	}

	for _, id := range db.stringIDs {
		blocks = append(blocks, "@string{"+id+" = "+db.Strings[id].String()+"}")
	}

	for _, e := range db.Entries {
		blocks = append(blocks, formatEntry(e.typ, e.id, e.order, func(name string) string {
			return e.fields[name].String()
		}, indent))
	}

	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))

	return err
}

// FormatData writes unresolved entries in BibTeX syntax.
func FormatData(_ context.Context, w io.Writer, entries []*EntryData, indent int) error {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = formatEntry(e.typ, e.id, e.order, func(name string) string {
			return e.fields[name].String()
		}, indent)
	}

	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))

	return err
}

// FormatEntries writes resolved entries in BibTeX syntax.
func FormatEntries(_ context.Context, w io.Writer, entries []*Entry, indent int) error {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = formatEntry(e.typ, e.id, e.order, func(name string) string {
			return e.fields[name].source()
		}, indent)
	}

	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n"))

	return err
}

func formatEntry(
	typ, id string,
	names []string,
	value func(string) string,
	indent int,
) string {
	var sb strings.Builder

	sb.WriteString("@" + typ + "{" + id)

	for _, name := range names {
		sb.WriteByte(',')

		if indent > 0 {
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", indent))
		} else {
			sb.WriteByte(' ')
		}

		sb.WriteString(name + " = " + value(name))
	}

	if indent > 0 && len(names) > 0 {
		sb.WriteString(",\n")
	}

	sb.WriteByte('}')

	return sb.String()
}

// ToMap converts the entry to native Go values: the type, the key and the
// raw field values.
func (e *Entry) ToMap() map[string]any {
	fields := make(map[string]string, len(e.order))
	for _, name := range e.order {
		fields[name] = e.fields[name].raw
	}

	return map[string]any{
		"type":   e.typ,
		"key":    e.id,
		"fields": fields,
	}
}

// toMapSlice is ToMap with field order preserved.
func (e *Entry) toMapSlice() yaml.MapSlice {
	fields := make(yaml.MapSlice, 0, len(e.order))
	for _, name := range e.order {
		fields = append(fields, yaml.MapItem{Key: name, Value: e.fields[name].raw})
	}

	return yaml.MapSlice{
		{Key: "type", Value: e.typ},
		{Key: "key", Value: e.id},
		{Key: "fields", Value: fields},
	}
}

// MarshalJSON implements json.Marshaler for Entry.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// FormatJSON writes resolved entries as a JSON array.
func FormatJSON(_ context.Context, w io.Writer, entries []*Entry, indent int) error {
	var (
		data []byte
		err  error
	)

	if entries == nil {
		entries = []*Entry{}
	}

	if indent > 0 {
		data, err = json.MarshalIndent(entries, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(entries)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes resolved entries as a YAML sequence, keeping field
// order.
func FormatYAML(ctx context.Context, w io.Writer, entries []*Entry, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	docs := make([]yaml.MapSlice, len(entries))
	for i, e := range entries {
		docs[i] = e.toMapSlice()
	}

	data, err := yaml.MarshalContext(ctx, docs, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
