package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dshills/glean/internal/review"
)

func TestJSONWriter(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	// Verify it's valid JSON
	var parsed review.Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Tool != "glean" {
		t.Errorf("Tool = %q, want %q", parsed.Tool, "glean")
	}
	if len(parsed.Files) != 3 {
		t.Fatalf("Files count = %d, want 3", len(parsed.Files))
	}
	if parsed.Files[1].Comments != report.Files[1].Comments {
		t.Errorf("Comments = %q", parsed.Files[1].Comments)
	}
	if parsed.Summary != report.Summary {
		t.Errorf("Summary = %+v, want %+v", parsed.Summary, report.Summary)
	}
}

func TestJSONWriter_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	report := &review.Report{Files: []review.FileResult{{Path: "a.py", Status: review.StatusClean}}}
	if err := (&JSONWriter{}).Write(&buf, report); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) || bytes.Contains(buf.Bytes(), []byte(`"comments"`)) {
		t.Errorf("empty fields should be omitted:\n%s", buf.String())
	}
}

func TestJSONWriter_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	report := &review.Report{Files: []review.FileResult{{
		Path:     "a.py",
		Status:   review.StatusComments,
		Comments: "Line 3: use i < len(xs) && xs[i] > 0",
	}}}
	if err := (&JSONWriter{}).Write(&buf, report); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("i < len(xs) && xs[i] > 0")) {
		t.Errorf("comments were escaped:\n%s", buf.String())
	}
}
