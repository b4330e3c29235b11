package bib

import (
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled boolean expression over resolved entries.
//
// The expression sees the variables type (string), key (string), fields
// (map of raw values), purified (map of purified values) and the function
// has(name), for example:
//
//	type == "article" && int(fields.year) >= 2000 && has("doi")
type Filter struct {
	source  string
	program *vm.Program
}

// filterEnv is the evaluation environment of a Filter for e. A nil entry
// yields the environment used to type-check expressions.
func filterEnv(e *Entry) map[string]any {
	env := map[string]any{
		"type":     "",
		"key":      "",
		"fields":   map[string]string{},
		"purified": map[string]string{},
		"has":      func(string) bool { return false },
	}

	if e == nil {
		return env
	}

	fields := make(map[string]string, len(e.order))
	purified := make(map[string]string, len(e.order))

	for _, name := range e.order {
		fields[name] = e.fields[name].raw
		purified[name] = e.fields[name].purified
	}

	env["type"] = e.typ
	env["key"] = e.id
	env["fields"] = fields
	env["purified"] = purified
	env["has"] = e.Has

	return env
}

// CompileFilter compiles source. The expression must produce a boolean.
func CompileFilter(source string) (*Filter, error) {
	program, err := expr.Compile(source, expr.Env(filterEnv(nil)), expr.AsBool())
	if err != nil {
		return nil, ErrFilterCompile.Wrap(err).
			With(slog.String("source", source))
	}

	return &Filter{source: source, program: program}, nil
}

func (f *Filter) String() string { return f.source }

// Match evaluates the filter against e.
func (f *Filter) Match(e *Entry) (bool, error) {
	result, err := vm.Run(f.program, filterEnv(e))
	if err != nil {
		return false, ErrFilterEvaluate.Wrap(err).
			With(slog.String("source", f.source), slog.String("key", e.id))
	}

	ok, isBool := result.(bool)
	if !isBool {
		return false, ErrFilterResult.With(
			slog.String("source", f.source),
			slog.Any("result", result),
		)
	}

	return ok, nil
}

// Apply returns the entries the filter matches, in order.
func (f *Filter) Apply(entries []*Entry) ([]*Entry, error) {
	out := make([]*Entry, 0, len(entries))

	for _, e := range entries {
		ok, err := f.Match(e)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, e)
		}
	}

	return out, nil
}
