package log

import (
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// Level is the severity of a log message.
type Level slog.Level

// Log levels.
const (
	LevelTrace = Level(slog.LevelDebug - 4)
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// DefaultLevel is the level of a Logger made without WithLevel.
const DefaultLevel = LevelInfo

var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// String returns the lowercase level name, with an offset for levels between
// the named ones, such as "info+2".
func (l Level) String() string {
	if l == LevelTrace {
		return "trace"
	}

	return strings.ToLower(slog.Level(l).String())
}

// Levels iterates the names of the defined levels, lowest first.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range levels {
			if !yield(l.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a level name, optionally followed by a signed offset
// such as "warn-1". Unknown names yield DefaultLevel.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "trace") {
		return LevelTrace
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the encoding of log records.
type Format int

// Log formats.
const (
	FormatJSON Format = iota
	FormatText
)

// DefaultFormat is the format of a Logger made without WithFormat.
const DefaultFormat = FormatJSON

var formatNames = []string{FormatJSON: "json", FormatText: "text"}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}

	return "unknown"
}

// Formats iterates the names of the defined formats.
func Formats() iter.Seq[string] { return slices.Values(formatNames) }

// ParseFormat parses a format name. Unknown names yield DefaultFormat.
func ParseFormat(s string) Format {
	i := slices.Index(formatNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return DefaultFormat
	}

	return Format(i)
}
