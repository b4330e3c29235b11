package bib

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/klauspost/readahead"
	"github.com/sahilm/fuzzy"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/bibdb/log"
)

// Comment is text outside entries: the body of an @comment command, or junk
// between commands (Implicit).
type Comment struct {
	Text     string
	Implicit bool
	Pos      Position
}

// Database is the result of parsing a BibTeX document.
type Database struct {
	// Entries holds every parsed entry in document order, duplicates
	// included.
	Entries []*EntryData
	// Index maps entry keys to the first entry defined with that key.
	Index map[string]*EntryData
	// Strings holds the @string definitions; the last definition wins.
	Strings Dictionary
	// Preamble concatenates the bodies of all @preamble commands.
	Preamble *StringExpr
	Comments []Comment
	// Diagnostics lists the problems found, in document order.
	Diagnostics []Diagnostic
	// Checksum is the xxh3 hash of the source text.
	Checksum uint64

	stringIDs []string
	logger    log.Logger
}

// Option configures a Database parse.
type Option func(*Database)

// WithLogger sets the logger receiving parse traces and diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(db *Database) { db.logger = logger }
}

// Parse parses src. It never fails: malformed input is reported in the
// Diagnostics of the result. Parsing stops early if ctx is canceled.
func Parse(ctx context.Context, src string, opts ...Option) *Database {
	db := &Database{
		Index:    map[string]*EntryData{},
		Strings:  Dictionary{},
		Checksum: xxh3.HashString(src),
	}

	for _, opt := range opts {
		opt(db)
	}

	start := time.Now()

	newParser(ctx, db, src).run()

	db.logger.DebugContext(ctx, "parsed database",
		slog.Int("source_bytes", len(src)),
		slog.Int("entries", len(db.Entries)),
		slog.Int("strings", len(db.Strings)),
		slog.Int("diagnostics", len(db.Diagnostics)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return db
}

// ParseReader reads all of r and parses it.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Database, string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, "", ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	src := string(data)
	db := Parse(ctx, src, opts...)

	if err := ctx.Err(); err != nil {
		return db, src, err
	}

	return db, src, nil
}

// define binds id to expr, calling onDup first if id was already defined.
func (db *Database) define(id string, expr *StringExpr, onDup func()) {
	if _, dup := db.Strings[id]; dup {
		onDup()
	} else {
		db.stringIDs = append(db.stringIDs, id)
	}

	db.Strings[id] = expr
}

// StringIDs returns the @string identifiers in order of first definition.
func (db *Database) StringIDs() []string { return slices.Clone(db.stringIDs) }

// Keys returns the indexed entry keys in document order.
func (db *Database) Keys() []string {
	keys := make([]string, 0, len(db.Index))

	for _, e := range db.Entries {
		if db.Index[e.id] == e {
			keys = append(keys, e.id)
		}
	}

	return keys
}

// Entry returns the entry indexed under key.
func (db *Database) Entry(key string) (*EntryData, bool) {
	e, ok := db.Index[key]

	return e, ok
}

// Resolve resolves the entry indexed under key. The error wraps
// ErrEntryNotFound and carries close matches as suggestions.
func (db *Database) Resolve(key string, opts ...ResolveOption) (*Entry, error) {
	e, ok := db.Index[key]
	if !ok {
		return nil, ErrEntryNotFound.With(
			slog.String("key", key),
			slog.Any("suggestions", db.Suggest(key, 5)),
		)
	}

	return e.Resolve(opts...), nil
}

// ResolveAll resolves every entry in document order.
func (db *Database) ResolveAll(opts ...ResolveOption) []*Entry {
	r := newResolver(opts...)
	out := make([]*Entry, 0, len(db.Entries))

	for _, e := range db.Entries {
		if v, ok := e.resolve(r); ok {
			out = append(out, v)
		}
	}

	return out
}

// ResolvePreamble resolves the concatenated preamble.
func (db *Database) ResolvePreamble(opts ...ResolveOption) Literal {
	return db.Preamble.Resolve(opts...)
}

// Suggest returns up to n indexed keys that fuzzily match key, best matches
// first.
func (db *Database) Suggest(key string, n int) []string {
	matches := fuzzy.Find(key, db.Keys())

	out := make([]string, 0, min(n, len(matches)))
	for _, m := range matches {
		if len(out) == n {
			break
		}

		out = append(out, m.Str)
	}

	return out
}

// IsStandardCompliant reports whether every entry's own fields satisfy the
// requirements of its type.
func (db *Database) IsStandardCompliant() bool {
	for _, e := range db.Entries {
		if !e.IsStandardCompliant() {
			return false
		}
	}

	return true
}

// UnresolveAll clears every cached value in the database. It returns false if
// any object was being resolved, in which case that object keeps its value.
func (db *Database) UnresolveAll() bool {
	ok := true

	for _, e := range db.Entries {
		ok = e.unresolveAll() && ok
	}

	for _, s := range db.Strings {
		ok = s.unresolveAll() && ok
	}

	if db.Preamble != nil {
		ok = db.Preamble.unresolveAll() && ok
	}

	return ok
}

// Errors returns the diagnostics with error severity.
func (db *Database) Errors() []Diagnostic {
	return slices.DeleteFunc(slices.Clone(db.Diagnostics), func(d Diagnostic) bool {
		return d.Code.Severity() != SeverityError
	})
}
