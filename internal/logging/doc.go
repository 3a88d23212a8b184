// Package logging configures the slog loggers used across reelmatch.
//
// Two output formats are supported: a human-oriented console format used
// for interactive runs (colorized when stdout is a terminal) and a JSON
// format for log files. Helper attr constructors keep call sites terse and
// consistent.
package logging
