package bib

import (
	"context"
	"log/slog"
	"strings"
)

// state is a grammar position of the database automaton.
type state int

const (
	stateSeek state = iota // skip junk up to the next '@'
	stateType
	stateOpen
	stateBody // dispatch on the command type
	stateComment
	statePreamble
	statePreambleClose
	stateStringID
	stateStringEquals
	stateStringClose
	stateEntryKey
	stateEntryKeyEnd
	stateFieldID
	stateFieldEquals
	stateFieldEnd
	stateOperand
	stateConcat
	stateDone
)

var stateName = [...]string{
	stateSeek:          "seek",
	stateType:          "type",
	stateOpen:          "open",
	stateBody:          "body",
	stateComment:       "comment",
	statePreamble:      "preamble",
	statePreambleClose: "preamble-close",
	stateStringID:      "string-id",
	stateStringEquals:  "string-equals",
	stateStringClose:   "string-close",
	stateEntryKey:      "entry-key",
	stateEntryKeyEnd:   "entry-key-end",
	stateFieldID:       "field-id",
	stateFieldEquals:   "field-equals",
	stateFieldEnd:      "field-end",
	stateOperand:       "operand",
	stateConcat:        "concat",
	stateDone:          "done",
}

func (s state) String() string { return stateName[s] }

// parser is the single-pass automaton that builds a Database.
type parser struct {
	ctx   context.Context
	db    *Database
	src   string
	pos   int
	lines lineTable

	// current command
	start  int    // offset of '@'
	kind   string // lowercase command type
	closer byte
	other  byte // closer of the other delimiter kind

	key    string
	keyPos int
	fields []Field
	seen   map[string]struct{}

	field    string
	fieldPos int

	strID  string
	strPos int

	// concatenation sub-grammar
	summands    []Summand
	afterConcat bool
	resume      state

	preamble []Summand

	// closer offsets, built once on first use so that failed scans are
	// never repeated
	braces []int // '{' to its '}'
	mixed  []int // '{' or '(' to its '}' or ')'
	quotes []int // start of a quoted body to its closing '"'
}

func newParser(ctx context.Context, db *Database, src string) *parser {
	return &parser{
		ctx:   ctx,
		db:    db,
		src:   src,
		lines: newLineTable(src),
	}
}

// run drives the automaton until no '@' remains.
func (p *parser) run() {
	for s := stateSeek; s != stateDone; {
		s = p.step(s)
	}

	p.db.Preamble = NewStringExpr(p.preamble...)
}

func (p *parser) step(s state) state {
	switch s {
	case stateSeek:
		return p.seek()
	case stateType:
		return p.typeID()
	case stateOpen:
		return p.open()
	case stateBody:
		return p.body()
	case stateComment:
		return p.comment()
	case statePreamble:
		return p.concat(statePreambleClose)
	case statePreambleClose:
		return p.preambleClose()
	case stateStringID:
		return p.stringID()
	case stateStringEquals:
		return p.stringEquals()
	case stateStringClose:
		return p.stringClose()
	case stateEntryKey:
		return p.entryKey()
	case stateEntryKeyEnd:
		return p.entryKeyEnd()
	case stateFieldID:
		return p.fieldID()
	case stateFieldEquals:
		return p.fieldEquals()
	case stateFieldEnd:
		return p.fieldEnd()
	case stateOperand:
		return p.operand()
	case stateConcat:
		return p.concatNext()
	}

	return stateDone
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// isIdentByte reports whether c may appear in an identifier.
func isIdentByte(c byte) bool {
	if isSpace(c) || c < ' ' || c == 0x7f {
		return false
	}

	return !strings.ContainsRune("\"#%'(),={}@", rune(c))
}

func (p *parser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}

	return p.src[start:p.pos]
}

// scanKey reads an entry key. Keys stop at whitespace, ',', '=', '@' and the
// delimiters.
func (p *parser) scanKey() string {
	start := p.pos

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isSpace(c) || strings.IndexByte(",={}()\"#@", c) >= 0 {
			break
		}

		p.pos++
	}

	return p.src[start:p.pos]
}

// diag records a diagnostic at byte offset at.
func (p *parser) diag(code Code, at int) {
	d := Diagnostic{Code: code, Pos: p.lines.position(at)}
	p.db.Diagnostics = append(p.db.Diagnostics, d)
	p.db.logger.DebugContext(p.ctx, "diagnostic", slog.Any("diagnostic", d))
}

// fail records a diagnostic and abandons the current command.
func (p *parser) fail(code Code, at int) state {
	p.diag(code, at)
	p.db.logger.TraceContext(p.ctx, "command discarded",
		slog.String("type", p.kind),
		slog.Int("offset", p.start),
	)

	return stateSeek
}

// failEOF reports code, or CodeUnexpectedEOF if the input is exhausted.
func (p *parser) failEOF(code Code) state {
	if p.eof() {
		return p.fail(CodeUnexpectedEOF, p.pos)
	}

	return p.fail(code, p.pos)
}

func (p *parser) junk(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	p.db.Comments = append(p.db.Comments, Comment{
		Text:     text,
		Implicit: true,
		Pos:      p.lines.position(p.pos),
	})
}

func (p *parser) seek() state {
	if p.ctx.Err() != nil {
		p.pos = len(p.src)

		return stateDone
	}

	i := strings.IndexByte(p.src[p.pos:], '@')
	if i < 0 {
		p.junk(p.src[p.pos:])
		p.pos = len(p.src)

		return stateDone
	}

	p.junk(p.src[p.pos : p.pos+i])

	p.pos += i
	p.start = p.pos
	p.pos++

	p.kind, p.key, p.field, p.strID = "", "", "", ""
	p.fields, p.seen, p.summands = nil, nil, nil

	return stateType
}

func (p *parser) typeID() state {
	p.skipSpace()

	at := p.pos

	id := p.scanIdent()
	switch {
	case id == "":
		return p.fail(CodeMissingTypeID, at)
	case isDigit(id[0]):
		return p.fail(CodeInvalidTypeID, at)
	}

	p.kind = foldID(id)

	return stateOpen
}

func (p *parser) open() state {
	p.skipSpace()

	switch p.peek() {
	case '{':
		p.closer, p.other = '}', ')'
	case '(':
		p.closer, p.other = ')', '}'
	default:
		if p.kind == "comment" {
			// A bare @comment is a line of junk.
			return stateSeek
		}

		return p.fail(CodeMissingOpenDelimiter, p.pos)
	}

	p.pos++

	return stateBody
}

func (p *parser) body() state {
	switch p.kind {
	case "comment":
		return stateComment
	case "preamble":
		return statePreamble
	case "string":
		return stateStringID
	}

	return stateEntryKey
}

// comment reads a comment body. A '(' opener balances '(' and '{' together,
// a '{' opener balances only braces.
func (p *parser) comment() state {
	start := p.pos

	var end int
	if p.closer == ')' {
		end = p.mixedCloser(start - 1)
	} else {
		end = p.braceCloser(start - 1)
	}

	if end < 0 {
		return p.fail(CodeUnterminatedComment, p.start)
	}

	p.db.Comments = append(p.db.Comments, Comment{
		Text: p.src[start:end],
		Pos:  p.lines.position(p.start),
	})
	p.pos = end + 1

	return stateSeek
}

// braceCloser returns the offset of the '}' matching the '{' at open, or -1.
func (p *parser) braceCloser(open int) int {
	if p.braces == nil {
		p.braces = closers(p.src, "{", "}")
	}

	return p.braces[open]
}

// mixedCloser is braceCloser with '(' and ')' counted as braces.
func (p *parser) mixedCloser(open int) int {
	if p.mixed == nil {
		p.mixed = closers(p.src, "{(", "})")
	}

	return p.mixed[open]
}

// quoteCloser returns the offset of the first '"' outside braces at or after
// from, or -1. A stray '}' outside braces is skipped.
func (p *parser) quoteCloser(from int) int {
	if from >= len(p.src) {
		return -1
	}

	if p.quotes == nil {
		p.quotes = make([]int, len(p.src)+1)
		p.quotes[len(p.src)] = -1

		for i := len(p.src) - 1; i >= 0; i-- {
			switch p.src[i] {
			case '"':
				p.quotes[i] = i
			case '{':
				if end := p.braceCloser(i); end < 0 {
					p.quotes[i] = -1
				} else {
					p.quotes[i] = p.quotes[end+1]
				}
			default:
				p.quotes[i] = p.quotes[i+1]
			}
		}
	}

	return p.quotes[from]
}

// closers maps every opener byte in src to the offset of its matching closer,
// or -1 if it is never closed. Closers without an open group are ignored.
// Offsets of other bytes map to 0.
func closers(src, opens, closes string) []int {
	match := make([]int, len(src))
	stack := make([]int, 0, 16)

	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case strings.IndexByte(opens, c) >= 0:
			match[i] = -1
			stack = append(stack, i)
		case strings.IndexByte(closes, c) >= 0 && len(stack) > 0:
			match[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
	}

	return match
}

// concat starts the concatenation sub-grammar and continues at resume when
// it completes.
func (p *parser) concat(resume state) state {
	p.summands = nil
	p.afterConcat = false
	p.resume = resume

	return stateOperand
}

func (p *parser) operand() state {
	p.skipSpace()

	at := p.pos

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, at)
	case c == '{':
		lit, ok := p.braceLiteral()
		if !ok {
			return p.fail(CodeUnclosedBrace, at)
		}

		p.summands = append(p.summands, lit)
	case c == '"':
		lit, ok := p.quoteLiteral()
		if !ok {
			return p.fail(CodeUnterminatedQuote, at)
		}

		p.summands = append(p.summands, lit)
	case isDigit(c):
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}

		p.summands = append(p.summands, NewLiteral(NewText(p.src[at:p.pos])))
	default:
		id := p.scanIdent()
		if id == "" {
			if p.afterConcat {
				return p.fail(CodeMissingConcatOperand, at)
			}

			return p.fail(CodeMissingValue, at)
		}

		p.summands = append(p.summands, NewStringRef(id, p.db.Strings))
	}

	return stateConcat
}

func (p *parser) concatNext() state {
	p.skipSpace()

	if p.peek() == '#' {
		p.pos++
		p.afterConcat = true

		return stateOperand
	}

	p.afterConcat = false

	return p.resume
}

// braceLiteral reads a '{' delimited literal. On failure scanning resumes
// just after the opening brace.
func (p *parser) braceLiteral() (Literal, bool) {
	open := p.pos

	end := p.braceCloser(open)
	if end < 0 {
		p.pos = open + 1

		return Literal{}, false
	}

	lit, _, _ := ParseLiteral(p.src[open+1 : end])
	p.pos = end + 1

	return lit, true
}

// quoteLiteral reads a '"' delimited literal, which ends at the first '"'
// outside braces. An unmatched '}' is repaired and diagnosed.
func (p *parser) quoteLiteral() (Literal, bool) {
	open := p.pos

	end := p.quoteCloser(open + 1)
	if end < 0 {
		p.pos = open + 1

		return Literal{}, false
	}

	lit, code, rel := ParseLiteral(p.src[open+1 : end])
	if code != CodeSuccess {
		p.diag(code, open+1+rel)
	}

	p.pos = end + 1

	return lit, true
}

func (p *parser) preambleClose() state {
	p.skipSpace()

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, p.pos)
	case c == p.closer:
		p.pos++
		p.preamble = append(p.preamble, p.summands...)
		p.db.logger.TraceContext(p.ctx, "preamble parsed",
			slog.Int("summands", len(p.summands)),
		)

		return stateSeek
	case c == p.other:
		return p.fail(CodeMismatchedCloseDelimiter, p.pos)
	}

	return p.fail(CodeMissingPreambleClose, p.pos)
}

func (p *parser) stringID() state {
	p.skipSpace()

	at := p.pos

	id := p.scanIdent()
	switch {
	case id == "":
		return p.failEOF(CodeMissingStringID)
	case isDigit(id[0]):
		return p.fail(CodeInvalidStringID, at)
	}

	p.strID, p.strPos = foldID(id), at

	return stateStringEquals
}

func (p *parser) stringEquals() state {
	p.skipSpace()

	if p.peek() != '=' {
		return p.failEOF(CodeMissingStringEquals)
	}

	p.pos++

	return p.concat(stateStringClose)
}

func (p *parser) stringClose() state {
	p.skipSpace()

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, p.pos)
	case c == p.other:
		return p.fail(CodeMismatchedCloseDelimiter, p.pos)
	case c != p.closer:
		return p.fail(CodeMissingStringClose, p.pos)
	}

	p.pos++
	p.db.define(p.strID, NewStringExpr(p.summands...), func() {
		p.diag(CodeDuplicateStringID, p.strPos)
	})
	p.db.logger.TraceContext(p.ctx, "string parsed",
		slog.String("id", p.strID),
	)

	return stateSeek
}

func (p *parser) entryKey() state {
	p.skipSpace()
	p.keyPos = p.pos
	p.key = p.scanKey()

	return stateEntryKeyEnd
}

func (p *parser) entryKeyEnd() state {
	p.skipSpace()

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, p.pos)
	case c == ',':
		p.pos++

		return stateFieldID
	case c == p.closer:
		p.pos++
		p.finishEntry()

		return stateSeek
	case c == '=' && p.key != "":
		// What looked like the key is the first field name.
		p.diag(CodeMissingEntryKey, p.keyPos)

		name := p.key
		p.key = ""

		if isDigit(name[0]) || strings.IndexFunc(name, func(r rune) bool {
			return r < 0x80 && !isIdentByte(byte(r))
		}) >= 0 {
			return p.fail(CodeInvalidFieldID, p.keyPos)
		}

		p.field, p.fieldPos = foldID(name), p.keyPos

		return stateFieldEquals
	case p.key == "":
		return p.fail(CodeInvalidEntryKey, p.pos)
	}

	return p.fail(CodeMissingKeyComma, p.pos)
}

func (p *parser) fieldID() state {
	p.skipSpace()

	at := p.pos

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, at)
	case c == p.closer:
		p.pos++
		p.finishEntry()

		return stateSeek
	case c == p.other:
		return p.fail(CodeMismatchedCloseDelimiter, at)
	}

	id := p.scanIdent()
	switch {
	case id == "":
		return p.fail(CodeMissingFieldID, at)
	case isDigit(id[0]):
		return p.fail(CodeInvalidFieldID, at)
	}

	p.field, p.fieldPos = foldID(id), at

	return stateFieldEquals
}

func (p *parser) fieldEquals() state {
	p.skipSpace()

	if p.peek() != '=' {
		return p.failEOF(CodeMissingFieldEquals)
	}

	p.pos++

	return p.concat(stateFieldEnd)
}

func (p *parser) fieldEnd() state {
	if p.seen == nil {
		p.seen = map[string]struct{}{}
	}

	if _, dup := p.seen[p.field]; dup {
		p.diag(CodeDuplicateFieldID, p.fieldPos)
	} else {
		p.seen[p.field] = struct{}{}
		p.fields = append(p.fields, Field{
			Name:  p.field,
			Value: NewStringExpr(p.summands...),
		})
	}

	p.skipSpace()

	switch c := p.peek(); {
	case p.eof():
		return p.fail(CodeUnexpectedEOF, p.pos)
	case c == ',':
		p.pos++

		return stateFieldID
	case c == p.closer:
		p.pos++
		p.finishEntry()

		return stateSeek
	case c == p.other:
		return p.fail(CodeMismatchedCloseDelimiter, p.pos)
	case c == '@':
		return p.fail(CodeMissingEntryClose, p.pos)
	}

	return p.fail(CodeMissingFieldComma, p.pos)
}

func (p *parser) finishEntry() {
	e := NewEntryData(p.kind, p.key, p.db.Index, p.fields...)
	e.pos = p.lines.position(p.start)

	p.db.Entries = append(p.db.Entries, e)

	switch _, dup := p.db.Index[p.key]; {
	case p.key == "":
	case dup:
		p.diag(CodeDuplicateEntryKey, p.keyPos)
	default:
		p.db.Index[p.key] = e
	}

	p.db.logger.TraceContext(p.ctx, "entry parsed",
		slog.String("type", e.typ),
		slog.String("key", e.id),
		slog.Int("fields", e.Len()),
	)
}
