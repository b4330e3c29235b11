// Package bib parses BibTeX databases into a structured object model and
// reproduces BibTeX's string semantics character for character.
//
// # Grammar
//
// Informal EBNF of the accepted input:
//
//	Database    → (Junk '@' Command)* Junk
//	Command     → Comment | Preamble | String | Entry
//	Comment     → "comment" Open <balanced text> Close
//	Preamble    → "preamble" Open Concat Close
//	String      → "string" Open Identifier '=' Concat Close
//	Entry       → Type Open [Key] (',' Field)* [','] Close
//	Field       → Identifier '=' Concat
//	Concat      → Operand ('#' Operand)*
//	Operand     → '{' <balanced text> '}' | '"' <text> '"' | Number | Identifier
//	Open, Close → '{' '}' | '(' ')'
//
// The parser never fails. Every malformed construct is reported as a
// [Diagnostic] and the offending command is skipped up to the next '@'.
//
// # Literals
//
// A [Literal] is an ordered list of pieces:
//
//   - text outside braces ([TextPiece]),
//   - special characters, brace groups at depth zero whose content starts
//     with a backslash such as {\'e} ([SpecialPiece]),
//   - any other brace group at depth zero ([BracedPiece]).
//
// The pieces carry the values BibTeX style files compute with text.length$,
// purify$, change.case$ and text.prefix$.
//
// # Resolution
//
// Field values and @string bodies are kept unresolved as [StringExpr]
// concatenations of literals and [StringRef] references. Resolution is lazy,
// memoized per object and cycle safe: a reference that re-enters an object
// already being resolved yields the empty literal.
//
//	db := bib.Parse(ctx, src)
//	for _, d := range db.Diagnostics {
//		fmt.Println(d)
//	}
//	entry, err := db.Resolve("knuth84", bib.WithMacros(bib.Months))
package bib
