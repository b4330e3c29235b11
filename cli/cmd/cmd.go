package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/bibdb/bib"
	"github.com/ardnew/bibdb/log"
	"github.com/ardnew/bibdb/pkg"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	searchPathKey struct{}
	outputKey     struct{}
	inputKey      struct{}
)

// WithSearchPath returns a new context.Context carrying the directories in
// which source names are looked up.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// WithOutput returns a new context.Context whose commands write to w instead
// of stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// WithInput returns a new context.Context whose commands read the "-" source
// from r instead of stdin.
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

func inputFrom(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok && r != nil {
		return r
	}

	return os.Stdin
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// source is one parsed input.
type source struct {
	name string
	text string
	db   *bib.Database
}

// Input selects the sources a command reads.
type Input struct {
	Sources []string `arg:"" default:"-" help:"Source file(s), names searched in the bibinputs path, or '-' for stdin." name:"source" optional:""`
}

// load parses every source in order. Names referring to the same file, via
// symlinks or different relative paths, are read once, and stdin is read at
// most once.
func (in Input) load(ctx context.Context) ([]source, error) {
	var (
		out   []source
		seen  = make(map[fileKey]struct{})
		stdin bool
		path  = searchPathFrom(ctx)
	)

	for _, name := range in.Sources {
		if name == stdinSource {
			if stdin {
				continue
			}

			stdin = true

			src, err := parse(ctx, "<stdin>", inputFrom(ctx))
			if err != nil {
				return nil, err
			}

			out = append(out, src)

			continue
		}

		file, ok := pkg.Locate(name, path)
		if !ok {
			return nil, ErrSourceNotFound.
				With(slog.String("source", name)).
				With(slog.Any("search", path))
		}

		if !unique(file, seen) {
			log.DebugContext(ctx, "skipping duplicate source",
				slog.String("source", name),
				slog.String("path", file),
			)

			continue
		}

		f, err := os.Open(file)
		if err != nil {
			return nil, ErrReadSource.
				With(slog.String("source", name)).
				Wrap(err)
		}

		src, err := parse(ctx, file, f)
		f.Close()

		if err != nil {
			return nil, err
		}

		out = append(out, src)
	}

	return out, nil
}

func parse(ctx context.Context, name string, r io.Reader) (source, error) {
	db, text, err := bib.ParseReader(ctx, r,
		bib.WithLogger(log.With(slog.String("source", name))),
	)
	if err != nil {
		return source{}, ErrReadSource.
			With(slog.String("source", name)).
			Wrap(err)
	}

	return source{name: name, text: text, db: db}, nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
type fileKey struct {
	dev uint64
	ino uint64
}

// unique reports whether path names a file not yet in seen, and records it.
// Files whose identity cannot be determined are always unique.
func unique(path string, seen map[fileKey]struct{}) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return true
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return true
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}

	key := fileKey{dev: uint64(stat.Dev), ino: stat.Ino}
	if _, exists := seen[key]; exists {
		return false
	}

	seen[key] = struct{}{}

	return true
}

// Resolution configures how field values are resolved.
type Resolution struct {
	NoMonths bool              `help:"Do not predefine the month macros jan through dec."`
	Macro    map[string]string `help:"Define a macro overriding @string definitions." placeholder:"NAME=VALUE" short:"D"`
}

func (r Resolution) options() ([]bib.ResolveOption, error) {
	macros := bib.Macros{}

	if !r.NoMonths {
		maps.Copy(macros, bib.Months)
	}

	for name, value := range r.Macro {
		lit, code, pos := bib.ParseLiteral(value)
		if code.Severity() == bib.SeverityError {
			return nil, ErrInvalidMacro.
				With(slog.String("name", name)).
				With(slog.String("problem", code.String())).
				With(slog.Int("offset", pos))
		}

		macros[name] = lit
	}

	return []bib.ResolveOption{bib.WithMacros(macros)}, nil
}

// resolveAll resolves the entries of every source in order.
func (r Resolution) resolveAll(srcs []source) ([]*bib.Entry, error) {
	opts, err := r.options()
	if err != nil {
		return nil, err
	}

	var out []*bib.Entry
	for _, src := range srcs {
		out = append(out, src.db.ResolveAll(opts...)...)
	}

	return out, nil
}

// Selection filters and orders resolved entries.
type Selection struct {
	Where  string   `help:"Keep entries for which an expr-lang predicate holds."            placeholder:"EXPR"  short:"w"`
	Sort   string   `help:"Sort by comma-separated fields, '-' prefix for descending order." placeholder:"KEYS"  short:"s"`
	Dedupe []string `help:"Drop entries repeating the values of these fields (or key)."      placeholder:"FIELD"`
}

func (s Selection) apply(entries []*bib.Entry) ([]*bib.Entry, error) {
	if s.Where != "" {
		f, err := bib.CompileFilter(s.Where)
		if err != nil {
			return nil, err
		}

		if entries, err = f.Apply(entries); err != nil {
			return nil, err
		}
	}

	if s.Sort != "" {
		keys, err := bib.ParseSortKeys(s.Sort)
		if err != nil {
			return nil, err
		}

		bib.Sort(entries, keys...)
	}

	if len(s.Dedupe) > 0 {
		entries = bib.Dedupe(entries, s.Dedupe...)
	}

	return entries, nil
}
