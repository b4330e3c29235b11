package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/bibdb/bib"
)

// Fmt writes sources in the chosen format.
type Fmt struct {
	Bib  Bib  `cmd:"" default:"withargs" help:"Format as normalized BibTeX (default)."`
	JSON JSON `cmd:""                    help:"Format resolved entries as JSON."`
	YAML YAML `cmd:""                    help:"Format resolved entries as YAML."`
}

// Bib formats sources as BibTeX.
type Bib struct {
	Input      `embed:""`
	Resolution `embed:""`
	Selection  `embed:""`

	Indent  int  `default:"2" help:"Indent width for fields, 0 for one entry per line." short:"i"`
	Resolve bool `help:"Write resolved entries instead of the source expressions." short:"r"`
}

func (s Selection) isZero() bool {
	return s.Where == "" && s.Sort == "" && len(s.Dedupe) == 0
}

// Run executes the bib command.
func (b *Bib) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := b.load(ctx)
	if err != nil {
		return err
	}

	out := outputFrom(ctx)

	if !b.Resolve && b.Selection.isZero() {
		for _, src := range srcs {
			if err := src.db.Format(ctx, out, b.Indent); err != nil {
				return ErrWriteOutput.
					With(slog.String("format", "bib")).
					Wrap(err)
			}
		}

		return nil
	}

	entries, err := b.resolveAll(srcs)
	if err != nil {
		return err
	}

	if entries, err = b.apply(entries); err != nil {
		return err
	}

	if b.Resolve {
		err = bib.FormatEntries(ctx, out, entries, b.Indent)
	} else {
		data := make([]*bib.EntryData, len(entries))
		for i, e := range entries {
			data[i] = e.Source()
		}

		err = bib.FormatData(ctx, out, data, b.Indent)
	}

	if err != nil {
		return ErrWriteOutput.
			With(slog.String("format", "bib")).
			Wrap(err)
	}

	return nil
}

// JSON formats resolved entries as a JSON array.
type JSON struct {
	Input      `embed:""`
	Resolution `embed:""`
	Selection  `embed:""`

	Indent int `default:"2" help:"Indent width for JSON output, 0 for compact." short:"i"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	entries, err := selectEntries(ctx, j.Input, j.Resolution, j.Selection)
	if err != nil {
		return err
	}

	if err := bib.FormatJSON(ctx, outputFrom(ctx), entries, j.Indent); err != nil {
		return ErrWriteOutput.
			With(slog.String("format", "json")).
			Wrap(err)
	}

	return nil
}

// YAML formats resolved entries as a YAML sequence.
type YAML struct {
	Input      `embed:""`
	Resolution `embed:""`
	Selection  `embed:""`

	Indent int `default:"2" help:"Indent width for YAML output, 0 for flow style." short:"i"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	entries, err := selectEntries(ctx, y.Input, y.Resolution, y.Selection)
	if err != nil {
		return err
	}

	if err := bib.FormatYAML(ctx, outputFrom(ctx), entries, y.Indent); err != nil {
		return ErrWriteOutput.
			With(slog.String("format", "yaml")).
			Wrap(err)
	}

	return nil
}

// selectEntries loads, resolves and selects entries.
func selectEntries(
	ctx context.Context,
	in Input,
	res Resolution,
	sel Selection,
) ([]*bib.Entry, error) {
	srcs, err := in.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := res.resolveAll(srcs)
	if err != nil {
		return nil, err
	}

	return sel.apply(entries)
}
