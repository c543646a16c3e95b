package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/glean/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("glean review of %s\n", report.Root)
	ew.printf("Provider: %s (model: %s)\n", report.Provider, report.Model)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d total (%d clean, %d with comments, %d failed)\n",
		s.Files, s.Clean, s.WithComments, s.Failed)
	ew.println(strings.Repeat("─", 60))

	if s.Files == 0 {
		ew.println("\nNo Python files found.")
		return ew.err
	}

	for _, f := range report.Files {
		ew.printf("\n%s %s\n", statusIcon(f.Status), f.Path)
		if f.Purpose != "" {
			ew.println("  Purpose:")
			for _, line := range wrapText(f.Purpose, 70) {
				ew.printf("    %s\n", line)
			}
		}
		switch f.Status {
		case review.StatusClean:
			ew.println("  No issues found.")
		case review.StatusComments:
			ew.println("  Comments:")
			for line := range strings.Lines(strings.TrimRight(f.Comments, "\n")) {
				ew.printf("    %s", line)
			}
			ew.println("")
		case review.StatusError:
			ew.printf("  Error: %s\n", f.Error)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms\n", report.Timing.TotalMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func statusIcon(status string) string {
	switch status {
	case review.StatusClean:
		return "[ok]"
	case review.StatusComments:
		return "[!]"
	case review.StatusError:
		return "[x]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
