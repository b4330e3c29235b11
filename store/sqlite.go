package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/ardnew/bibdb/bib"
)

const schema = `
CREATE TABLE IF NOT EXISTS imports (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	checksum   TEXT NOT NULL UNIQUE,
	count      INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	id        TEXT PRIMARY KEY,
	import_id TEXT NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	type      TEXT NOT NULL,
	key       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(key COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS fields (
	entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	name     TEXT NOT NULL,
	raw      TEXT NOT NULL,
	purified TEXT NOT NULL,
	PRIMARY KEY (entry_id, name)
);
`

// SQLite stores entries in a SQLite database file.
type SQLite struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy io.Reader
}

// Open opens or creates the database at path and ensures its schema.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open(
		"sqlite",
		path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)",
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLite{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Import stores entries as a new batch read from source. If a batch with the
// same checksum exists, nothing is written and its id is returned with
// imported false.
func (s *SQLite) Import(
	ctx context.Context,
	source string,
	checksum uint64,
	entries []*bib.Entry,
) (id string, imported bool, err error) {
	sum := strconv.FormatUint(checksum, 16)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM imports WHERE checksum = ?`, sum).Scan(&id)

	switch {
	case err == nil:
		return id, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", false, fmt.Errorf("find import: %w", err)
	}

	id = s.newID()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, checksum, count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, source, sum, len(entries), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", false, fmt.Errorf("insert import: %w", err)
	}

	for seq, e := range entries {
		entryID := s.newID()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (id, import_id, seq, type, key)
			 VALUES (?, ?, ?, ?, ?)`,
			entryID, id, seq, e.Type(), e.ID())
		if err != nil {
			return "", false, fmt.Errorf("insert entry %q: %w", e.ID(), err)
		}

		n := 0
		for name, value := range e.Fields() {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO fields (entry_id, seq, name, raw, purified)
				 VALUES (?, ?, ?, ?, ?)`,
				entryID, n, name, value.Raw(), value.Purified())
			if err != nil {
				return "", false, fmt.Errorf("insert field %q: %w", name, err)
			}
			n++
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, err
	}

	return id, true, nil
}

// Imports lists all batches, oldest first.
func (s *SQLite) Imports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, checksum, count, created_at
		 FROM imports ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []Import

	for rows.Next() {
		var (
			imp          Import
			sum, created string
		)

		if err := rows.Scan(&imp.ID, &imp.Source, &sum, &imp.Count, &created); err != nil {
			return nil, err
		}

		imp.Checksum, _ = strconv.ParseUint(sum, 16, 64)
		imp.Created, _ = time.Parse(time.RFC3339, created)
		out = append(out, imp)
	}

	return out, rows.Err()
}

// Entries returns every stored record whose key matches key
// case-insensitively, newest batch first.
func (s *SQLite) Entries(ctx context.Context, key string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.import_id, e.type, e.key
		 FROM entries e
		 WHERE e.key = ? COLLATE NOCASE
		 ORDER BY e.import_id DESC, e.seq`, key)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}

	var (
		ids []string
		out []Record
	)

	for rows.Next() {
		var (
			id  string
			rec Record
		)

		if err := rows.Scan(&id, &rec.Batch, &rec.Type, &rec.Key); err != nil {
			rows.Close()

			return nil, err
		}

		ids = append(ids, id)
		out = append(out, rec)
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		fields, err := s.fields(ctx, id)
		if err != nil {
			return nil, err
		}

		out[i].Fields = fields
	}

	return out, nil
}

func (s *SQLite) fields(ctx context.Context, entryID string) ([]Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, raw FROM fields WHERE entry_id = ? ORDER BY seq`, entryID)
	if err != nil {
		return nil, fmt.Errorf("find fields: %w", err)
	}
	defer rows.Close()

	var out []Field

	for rows.Next() {
		var f Field
		if err := rows.Scan(&f.Name, &f.Value); err != nil {
			return nil, err
		}

		out = append(out, f)
	}

	return out, rows.Err()
}
