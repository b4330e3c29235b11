// Package log wraps [log/slog] with the leveled, attribute-only logging
// interface used throughout bibdb.
//
// A [Logger] is configured once with functional options and is safe for
// concurrent use. The zero value discards everything, so library types can
// embed a Logger without requiring callers to configure one.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.InfoContext(ctx, "parsed database",
//		slog.Int("entries", n),
//		slog.String("file", path))
//
// Below [LevelDebug] sits [LevelTrace], used for per-command parser events.
//
// The package-level functions log through a process-wide default logger
// replaced with [Config].
package log
