package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeLayout is the timestamp layout of a Logger made without
// WithTimeLayout.
const DefaultTimeLayout = time.RFC3339

// settings is the immutable configuration behind a Logger. Options operate
// on a private copy, so a Logger never observes later changes.
type settings struct {
	output     io.Writer
	formatTime func(time.Time) string
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

// Option configures a Logger.
type Option func(*settings)

func newSettings(w io.Writer, opts ...Option) settings {
	s := settings{
		output:     io.Discard,
		formatTime: timeFormatter(DefaultTimeLayout),
		level:      DefaultLevel,
		format:     DefaultFormat,
	}

	if w != nil {
		s.output = w
	}

	return s.with(opts...)
}

func (s settings) with(opts ...Option) settings {
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithOutput sets the destination of log records. A nil writer discards
// them.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}

		s.output = w
	}
}

// WithLevel sets the minimum level of logged messages.
func WithLevel(level Level) Option {
	return func(s *settings) { s.level = level }
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

// WithCaller adds the source location of the logging call to each record.
func WithCaller(enable bool) Option {
	return func(s *settings) { s.caller = enable }
}

// WithPretty colorizes text records for terminals. JSON records are not
// affected.
func WithPretty(enable bool) Option {
	return func(s *settings) { s.pretty = enable }
}

// WithTimeLayout sets the timestamp layout. Named layouts of package time
// are accepted case-insensitively ("RFC3339Nano", "kitchen") as well as the
// aliases "ms", "us" and "ns". An empty layout or "none" omits timestamps;
// anything else is used verbatim.
func WithTimeLayout(layout string) Option {
	return func(s *settings) { s.formatTime = timeFormatter(layout) }
}

var namedLayouts = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rubydate":    time.RubyDate,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"ms":          time.StampMilli,
	"stampmicro":  time.StampMicro,
	"us":          time.StampMicro,
	"stampnano":   time.StampNano,
	"ns":          time.StampNano,
	"none":        "",
}

func timeFormatter(layout string) func(time.Time) string {
	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}

		return -1
	}, strings.ToLower(layout))

	if named, ok := namedLayouts[key]; ok {
		layout = named
	}

	if strings.TrimSpace(layout) == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}

// replaceAttr renders timestamps with the configured layout and levels with
// their names, TRACE included.
func (s settings) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		t, ok := a.Value.Any().(time.Time)
		if !ok {
			break
		}

		formatted := s.formatTime(t)
		if formatted == "" {
			return slog.Attr{}
		}

		a.Value = slog.StringValue(formatted)
	case slog.LevelKey:
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToUpper(Level(level).String()))
		}
	}

	return a
}

func (s settings) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   s.caller,
		Level:       slog.Level(s.level),
		ReplaceAttr: s.replaceAttr,
	}

	switch {
	case s.format == FormatText && s.pretty:
		return newPrettyHandler(s.output, opts, s.formatTime)
	case s.format == FormatText:
		return slog.NewTextHandler(s.output, opts)
	case s.format == FormatJSON:
		return slog.NewJSONHandler(s.output, opts)
	}

	return slog.DiscardHandler
}
