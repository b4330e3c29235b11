// Package profile starts optional runtime profiling of bibdb commands.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	bibdb --pprof-mode cpu check refs.bib
//	go tool pprof -http=: ~/.cache/bibdb/pprof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper], so callers never need build tags of their own.
//
// With the tag, the package also registers the [net/http/pprof] handlers on
// the default HTTP mux for long-running processes such as the browse
// command.
package profile
