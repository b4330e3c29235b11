package cmd

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/bibdb/bib"
)

// Get prints one resolved entry.
type Get struct {
	Key string `arg:"" help:"Citation key, matched exactly and then ignoring case."`

	Input      `embed:""`
	Resolution `embed:""`

	Format  string `default:"bib" enum:"bib,json,yaml" help:"Output format (${enum})." short:"f"`
	Indent  int    `default:"2"                        help:"Indent width."            short:"i"`
	Suggest int    `default:"5"                        help:"Maximum number of keys suggested when the key is absent."`
}

// Run executes the get command.
func (g *Get) Run(ctx context.Context) error {
	srcs, err := g.load(ctx)
	if err != nil {
		return err
	}

	opts, err := g.options()
	if err != nil {
		return err
	}

	var suggestions []string

	for _, src := range srcs {
		e, err := src.db.Resolve(foldKey(src.db, g.Key), opts...)
		if errors.Is(err, bib.ErrEntryNotFound) {
			for _, s := range src.db.Suggest(g.Key, g.Suggest) {
				if !slices.Contains(suggestions, s) {
					suggestions = append(suggestions, s)
				}
			}

			continue
		}

		if err != nil {
			return err
		}

		return writeEntries(ctx, g.Format, g.Indent, e)
	}

	return bib.ErrEntryNotFound.
		With(slog.String("key", g.Key)).
		With(slog.Any("suggestions", suggestions[:min(len(suggestions), g.Suggest)]))
}

// foldKey returns the indexed key of db equal to key, or else the first one
// equal ignoring case, or else key itself.
func foldKey(db *bib.Database, key string) string {
	if _, ok := db.Entry(key); ok {
		return key
	}

	for _, k := range db.Keys() {
		if strings.EqualFold(k, key) {
			return k
		}
	}

	return key
}

func writeEntries(ctx context.Context, format string, indent int, entries ...*bib.Entry) error {
	out := outputFrom(ctx)

	var err error

	switch format {
	case "json":
		err = bib.FormatJSON(ctx, out, entries, indent)
	case "yaml":
		err = bib.FormatYAML(ctx, out, entries, indent)
	case "bib":
		err = bib.FormatEntries(ctx, out, entries, indent)
	default:
		return bib.ErrInvalidFormat.With(slog.String("format", format))
	}

	if err != nil {
		return ErrWriteOutput.
			With(slog.String("format", format)).
			Wrap(err)
	}

	return nil
}
