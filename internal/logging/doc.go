// Package logging assembles structured slog loggers and formatting helpers.
//
// It owns the console and JSON handlers, level parsing, and the standard
// field names, plus a run ID carried through context so every line of one
// conversion can be correlated. Output defaults to stderr because stdout may
// carry the PXY4M frame stream.
package logging
