package cmd

import "github.com/ardnew/bibdb/bib"

// Command failures use the engine error type.
var (
	ErrSourceNotFound = bib.NewError("source not found")
	ErrReadSource     = bib.NewError("read source")
	ErrInvalidMacro   = bib.NewError("invalid macro definition")
	ErrCheckFailed    = bib.NewError("check failed")
	ErrWriteOutput    = bib.NewError("write output")
	ErrExport         = bib.NewError("export entries")
	ErrEntryNotStored = bib.NewError("entry not stored")
	ErrWriteConfig    = bib.NewError("write configuration file")
	ErrFileExists     = bib.NewError("file exists (use --force to overwrite)")
)
