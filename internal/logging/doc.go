// Package logging builds the structured slog logger used across glean and
// carries it through context.
//
// Results go to stdout; log records always go to stderr so that piping the
// output of `glean analyze` or serving MCP over stdio stays clean.
package logging
