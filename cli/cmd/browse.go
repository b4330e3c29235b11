package cmd

import (
	"context"
	"os"

	"github.com/ardnew/bibdb/cli/cmd/browse"
)

// Browse interactively searches resolved entries and prints the picked one.
type Browse struct {
	Input      `embed:""`
	Resolution `embed:""`
	Selection  `embed:""`

	Query  string `help:"Initial search query." short:"q"`
	Format string `default:"bib" enum:"bib,json,yaml,key" help:"Output format of the picked entry (${enum})." short:"f"`
	Indent int    `default:"2"                             help:"Indent width."                                  short:"i"`
}

// Run executes the browse command.
func (b *Browse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	entries, err := selectEntries(ctx, b.Input, b.Resolution, b.Selection)
	if err != nil {
		return err
	}

	// Interact through the controlling terminal so stdin can be a source.
	tty, err := os.Open("/dev/tty")
	if err != nil {
		tty = os.Stdin
	} else {
		defer tty.Close()
	}

	picked, err := browse.Run(ctx, entries, b.Query, tty, os.Stderr)
	if err != nil || picked == nil {
		return err
	}

	if b.Format == "key" {
		_, err = outputFrom(ctx).Write([]byte(picked.ID() + "\n"))
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	return writeEntries(ctx, b.Format, b.Indent, picked)
}
