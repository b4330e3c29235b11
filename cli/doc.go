// Package cli contains the command line interface for bibdb.
//
// # Usage
//
//	bibdb check refs.bib
//	bibdb fmt json --where 'int(fields.year) >= 2000' --sort -year refs.bib
//	bibdb get knuth84 refs.bib
//	bibdb export refs.bib
//
// Source names that are not existing files are looked up in the directories
// given with --bibinputs and then in the BIBINPUTS environment variable,
// with and without a ".bib" extension.
//
// # Configuration
//
// Flag defaults are read from config.yaml (and config.json) in the user
// configuration directory. Keys are flag names; nested mappings are joined
// with "-":
//
//	log:
//	  level: debug
//	  format: json
//	bibinputs:
//	  - ~/texmf/bibtex/bib
//
// Command-line flags override config file values. "bibdb init" writes the
// current global flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/bibdb/pprof)
package cli
