package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/bibdb/bib"
	"github.com/ardnew/bibdb/log"
)

// Check reports parse diagnostics and entries missing required fields.
type Check struct {
	Input      `embed:""`
	Resolution `embed:""`

	Strict   bool `help:"Fail on warnings and missing required fields too."`
	Context  bool `help:"Show the source line under each diagnostic."       short:"C"`
	Warnings bool `default:"true"                                          help:"Report warnings." negatable:""`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	srcs, err := c.load(ctx)
	if err != nil {
		return err
	}

	opts, err := c.options()
	if err != nil {
		return err
	}

	var (
		out                        = outputFrom(ctx)
		errCount, warnCount, fails int
	)

	for _, src := range srcs {
		e, w, err := c.diagnose(out, src)
		if err != nil {
			return err
		}

		errCount += e
		warnCount += w

		n, err := c.compliance(out, src, opts)
		if err != nil {
			return err
		}

		fails += n
	}

	log.DebugContext(ctx, "check complete",
		slog.Int("sources", len(srcs)),
		slog.Int("errors", errCount),
		slog.Int("warnings", warnCount),
		slog.Int("noncompliant", fails),
	)

	if errCount > 0 || (c.Strict && warnCount+fails > 0) {
		return ErrCheckFailed.
			With(slog.Int("errors", errCount)).
			With(slog.Int("warnings", warnCount)).
			With(slog.Int("noncompliant", fails))
	}

	return nil
}

// diagnose prints the diagnostics of src and counts them by severity.
func (c *Check) diagnose(w io.Writer, src source) (errs, warns int, err error) {
	derr, _ := bib.NewDiagnosticError(src.name, src.text, src.db.Diagnostics).(*bib.DiagnosticError)
	if derr == nil {
		return 0, 0, nil
	}

	for _, d := range derr.Diagnostics {
		switch d.Code.Severity() {
		case bib.SeverityError:
			errs++
		case bib.SeverityWarning:
			warns++

			if !c.Warnings {
				continue
			}
		}

		if _, err := fmt.Fprintf(w, "%s:%s\n", src.name, d); err != nil {
			return 0, 0, ErrWriteOutput.Wrap(err)
		}

		if c.Context {
			if _, err := fmt.Fprintln(w, derr.Snippet(d.Pos)); err != nil {
				return 0, 0, ErrWriteOutput.Wrap(err)
			}
		}
	}

	return errs, warns, nil
}

// compliance prints every entry of src lacking a required field, counting
// inherited crossref fields as present.
func (c *Check) compliance(w io.Writer, src source, opts []bib.ResolveOption) (int, error) {
	n := 0

	for _, data := range src.db.Entries {
		missing := data.Resolve(opts...).MissingFields()
		if len(missing) == 0 {
			continue
		}

		n++

		alts := make([]string, len(missing))
		for i, req := range missing {
			alts[i] = strings.Join(req, " or ")
		}

		_, err := fmt.Fprintf(w, "%s:%s: %s %q: missing %s\n",
			src.name, data.Pos(), data.Type(), data.ID(), strings.Join(alts, ", "))
		if err != nil {
			return 0, ErrWriteOutput.Wrap(err)
		}
	}

	return n, nil
}
