package output

import "github.com/dshills/glean/internal/review"

func sampleReport() *review.Report {
	files := []review.FileResult{
		{Path: "app/main.py", Status: review.StatusClean, Purpose: "Starts the web server."},
		{
			Path:     "app/util.py",
			Status:   review.StatusComments,
			Purpose:  "Helpers for parsing dates.",
			Comments: "- parse() indexes past the end of parts\n- use datetime.strptime",
		},
		{Path: "app/broken.py", Status: review.StatusError, Error: "inferring purpose: rate limited"},
	}
	return &review.Report{
		Tool:     "glean",
		Version:  "1.0.0",
		RunID:    "test-run",
		Root:     "app",
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5",
		Files:    files,
		Summary:  review.ComputeSummary(files),
		Timing:   review.Timing{TotalMs: 1234},
	}
}

func emptyReport() *review.Report {
	return &review.Report{Tool: "glean", Root: "empty", Files: []review.FileResult{}}
}
