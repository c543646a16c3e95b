package review

import (
	"time"

	"github.com/google/uuid"
)

// File statuses recorded in a Report.
const (
	StatusClean    = "clean"
	StatusComments = "comments"
	StatusError    = "error"
)

// FileResult is the outcome of analyzing one file.
type FileResult struct {
	Path       string `json:"path"`
	Status     string `json:"status"`
	Purpose    string `json:"purpose,omitempty"`
	Comments   string `json:"comments,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// Summary counts file outcomes.
type Summary struct {
	Files        int `json:"files"`
	Clean        int `json:"clean"`
	WithComments int `json:"withComments"`
	Failed       int `json:"failed"`
}

// Timing contains performance metrics.
type Timing struct {
	StartedAt time.Time `json:"startedAt"`
	TotalMs   int64     `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool     string       `json:"tool"`
	Version  string       `json:"version"`
	RunID    string       `json:"runId"`
	Root     string       `json:"root"`
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Summary  Summary      `json:"summary"`
	Files    []FileResult `json:"files"`
	Timing   Timing       `json:"timing"`
}

// NewReport returns an empty report for root with a fresh run ID.
func NewReport(root, provider, model string) *Report {
	return &Report{
		Tool:     "glean",
		RunID:    uuid.NewString(),
		Root:     root,
		Provider: provider,
		Model:    model,
		Files:    []FileResult{},
		Timing:   Timing{StartedAt: time.Now().UTC()},
	}
}

// HasComments reports whether any file received review comments.
func (r *Report) HasComments() bool {
	return r.Summary.WithComments > 0
}

// ComputeSummary calculates the summary from file results.
func ComputeSummary(files []FileResult) Summary {
	s := Summary{Files: len(files)}
	for _, f := range files {
		switch f.Status {
		case StatusClean:
			s.Clean++
		case StatusComments:
			s.WithComments++
		case StatusError:
			s.Failed++
		}
	}
	return s
}
