package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/bibdb/log"
	"github.com/ardnew/bibdb/store"
)

// Export writes resolved entries to a SQLite database.
type Export struct {
	Input      `embed:""`
	Resolution `embed:""`
	Selection  `embed:""`

	DB string `default:"${cache}/bibdb.db" help:"SQLite database path." type:"path"`
}

// Run executes the export command.
func (x *Export) Run(ctx context.Context) (err error) {
	srcs, err := x.load(ctx)
	if err != nil {
		return err
	}

	s, err := store.Open(x.DB)
	if err != nil {
		return ErrExport.With(slog.String("db", x.DB)).Wrap(err)
	}
	defer s.Close()

	out := outputFrom(ctx)

	for _, src := range srcs {
		entries, err := x.resolveAll([]source{src})
		if err != nil {
			return err
		}

		if entries, err = x.apply(entries); err != nil {
			return err
		}

		id, imported, err := s.Import(ctx, src.name, src.db.Checksum, entries)
		if err != nil {
			return ErrExport.
				With(slog.String("db", x.DB)).
				With(slog.String("source", src.name)).
				Wrap(err)
		}

		log.DebugContext(ctx, "export",
			slog.String("source", src.name),
			slog.String("batch", id),
			slog.Bool("imported", imported),
			slog.Int("entries", len(entries)),
		)

		if imported {
			_, err = fmt.Fprintf(out, "%s: imported %d entries as %s\n", src.name, len(entries), id)
		} else {
			_, err = fmt.Fprintf(out, "%s: unchanged since %s\n", src.name, id)
		}

		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

// Lookup prints the stored versions of an entry, or the import history.
type Lookup struct {
	Key string `arg:"" help:"Citation key, ignoring case. Omit to list imports." optional:""`

	DB string `default:"${cache}/bibdb.db" help:"SQLite database path." type:"path"`
}

// Run executes the lookup command.
func (l *Lookup) Run(ctx context.Context) error {
	s, err := store.Open(l.DB)
	if err != nil {
		return ErrExport.With(slog.String("db", l.DB)).Wrap(err)
	}
	defer s.Close()

	out := outputFrom(ctx)

	if l.Key == "" {
		imports, err := s.Imports(ctx)
		if err != nil {
			return err
		}

		for _, imp := range imports {
			_, err := fmt.Fprintf(out, "%s %s %016x %4d %s\n",
				imp.ID, imp.Created.Format(time.RFC3339), imp.Checksum, imp.Count, imp.Source)
			if err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

		return nil
	}

	recs, err := s.Entries(ctx, l.Key)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		return ErrEntryNotStored.With(slog.String("key", l.Key))
	}

	for _, rec := range recs {
		if _, err := fmt.Fprintf(out, "# batch %s\n%s\n", rec.Batch, rec); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
