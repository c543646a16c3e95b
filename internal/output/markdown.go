package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/glean/internal/review"
)

// MarkdownWriter outputs a markdown report with a collapsible section per file.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## glean review\n\n")
	ew.printf("`%s` reviewed with %s (`%s`)\n\n", report.Root, report.Provider, report.Model)

	// Summary table
	ew.printf("| Result | Files |\n")
	ew.printf("|--------|-------|\n")
	ew.printf("| Clean | %d |\n", s.Clean)
	ew.printf("| With comments | %d |\n", s.WithComments)
	ew.printf("| Failed | %d |\n", s.Failed)
	ew.printf("| **Total** | **%d** |\n\n", s.Files)

	if s.Files == 0 {
		ew.println("No Python files found.")
		return ew.err
	}

	for _, f := range report.Files {
		ew.printf("<details>\n<summary>%s <code>%s</code></summary>\n\n", mdStatusIcon(f.Status), f.Path)
		if f.Purpose != "" {
			ew.printf("> %s\n\n", strings.ReplaceAll(strings.TrimSpace(f.Purpose), "\n", "\n> "))
		}
		switch f.Status {
		case review.StatusClean:
			ew.println("No issues found. :white_check_mark:")
			ew.println("")
		case review.StatusComments:
			ew.printf("%s\n\n", strings.TrimSpace(f.Comments))
		case review.StatusError:
			ew.printf("**Error:** `%s`\n\n", f.Error)
		}
		ew.printf("</details>\n\n")
	}

	// Timing footer
	ew.printf("*Reviewed in %dms*\n", report.Timing.TotalMs)
	return ew.err
}

func mdStatusIcon(status string) string {
	switch status {
	case review.StatusClean:
		return ":white_check_mark:"
	case review.StatusComments:
		return ":orange_circle:"
	case review.StatusError:
		return ":red_circle:"
	default:
		return ":white_circle:"
	}
}
