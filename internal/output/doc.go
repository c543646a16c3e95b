// Package output formats analysis reports for display or machine consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output (default)
//   - json: full structured JSON report
//   - markdown: one collapsible section per file, suitable for PR comments
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// handles choosing between a file and stdout.
package output
