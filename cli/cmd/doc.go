// Package cmd implements the bibdb subcommands.
//
// Every command reads one or more BibTeX sources. A source is a file path,
// a name looked up in the search path (see [pkg.SearchPath]), or "-" for
// stdin.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
