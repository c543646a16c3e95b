package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/glean/internal/config"
	"github.com/dshills/glean/internal/providers"
)

// spyClient records prompts and answers through reply.
type spyClient struct {
	mu      sync.Mutex
	prompts []providers.Request
	reply   func(req providers.Request) (string, error)
}

func (s *spyClient) Name() string { return "spy" }

func (s *spyClient) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req)
	s.mu.Unlock()
	if s.reply == nil {
		return providers.Response{Content: Sentinel}, nil
	}
	out, err := s.reply(req)
	return providers.Response{Content: out}, err
}

func (s *spyClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Model = "test-model"
	return opts
}

func TestEngine_PathReplies(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.py"), PathMissing},
		{"directory", dir, PathDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyClient{}
			e := NewEngine(spy, DefaultPrompts(), nil)

			got, err := e.InferProgramPurpose(context.Background(), tt.path, testOptions())
			if err != nil || got != tt.want {
				t.Errorf("InferProgramPurpose = %q, %v; want %q", got, err, tt.want)
			}
			got, err = e.GenerateComments(context.Background(), tt.path, "purpose", testOptions())
			if err != nil || got != tt.want {
				t.Errorf("GenerateComments = %q, %v; want %q", got, err, tt.want)
			}
			if spy.calls() != 0 {
				t.Errorf("inference calls = %d, want 0", spy.calls())
			}
		})
	}
}

func TestEngine_InferProgramPurpose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.py", "import sys\n\nprint(sys.argv)\n")
	spy := &spyClient{reply: func(providers.Request) (string, error) {
		return "Prints its command-line arguments.", nil
	}}
	e := NewEngine(spy, DefaultPrompts(), nil)

	got, err := e.InferProgramPurpose(context.Background(), path, testOptions())
	if err != nil {
		t.Fatalf("InferProgramPurpose error: %v", err)
	}
	if got != "Prints its command-line arguments." {
		t.Errorf("purpose = %q", got)
	}
	if spy.calls() != 1 {
		t.Fatalf("calls = %d, want 1", spy.calls())
	}
	req := spy.prompts[0]
	if !strings.HasPrefix(req.Prompt, InitialSummary) {
		t.Errorf("prompt should start with the initial summary:\n%s", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "print(sys.argv)") {
		t.Error("prompt missing file content")
	}
	if req.Model != "test-model" {
		t.Errorf("Model = %q", req.Model)
	}
	if len(req.SystemMessages) != 1 || req.SystemMessages[0] != DefaultPurposeSystem {
		t.Errorf("SystemMessages = %v", req.SystemMessages)
	}
}

func TestEngine_InferProgramPurpose_LargeFileFolds(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("value = compute(value)  # keep going\n")
	}
	path := writeFile(t, t.TempDir(), "big.py", b.String())

	spy := &spyClient{reply: func(providers.Request) (string, error) {
		return "summary", nil
	}}
	e := NewEngine(spy, DefaultPrompts(), nil)
	if _, err := e.InferProgramPurpose(context.Background(), path, testOptions()); err != nil {
		t.Fatal(err)
	}
	if spy.calls() < 2 {
		t.Errorf("calls = %d, want the file split across several fragments", spy.calls())
	}
	for i, req := range spy.prompts[1:] {
		if !strings.HasPrefix(req.Prompt, "summary") {
			t.Errorf("prompt %d does not carry the running summary", i+1)
		}
	}
	for _, req := range spy.prompts {
		if size := len([]rune(req.Prompt)) + len([]rune(req.SystemMessages[0])); size > DefaultSizeBudget {
			t.Errorf("prompt size %d exceeds budget %d", size, DefaultSizeBudget)
		}
	}
}

func TestEngine_InferProgramPurpose_LongSummaryStaysInBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("value = compute(value)  # keep going\n")
	}
	path := writeFile(t, t.TempDir(), "big.py", b.String())

	long := strings.Repeat("x", 1500)
	spy := &spyClient{reply: func(providers.Request) (string, error) {
		return long, nil
	}}
	opts := testOptions()
	e := NewEngine(spy, DefaultPrompts(), nil)
	if _, err := e.InferProgramPurpose(context.Background(), path, opts); err != nil {
		t.Fatal(err)
	}
	if spy.calls() < 2 {
		t.Fatalf("calls = %d, want several fragments", spy.calls())
	}
	for i, req := range spy.prompts {
		if size := len([]rune(req.Prompt)) + len([]rune(req.SystemMessages[0])); size > opts.SizeBudget {
			t.Errorf("prompt %d size %d exceeds budget %d", i, size, opts.SizeBudget)
		}
	}
	for i, req := range spy.prompts[1:] {
		if !strings.HasPrefix(req.Prompt, long[:opts.SummaryReserve]) || strings.HasPrefix(req.Prompt, long[:opts.SummaryReserve+1]) {
			t.Errorf("prompt %d does not carry a summary cut to %d runes", i+1, opts.SummaryReserve)
		}
	}
}

func TestEngine_BudgetTooSmall(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.py", "x = 1\n")
	spy := &spyClient{}
	e := NewEngine(spy, DefaultPrompts(), nil)

	opts := testOptions()
	opts.SizeBudget = 100
	_, err := e.GenerateComments(context.Background(), path, "", opts)
	if !errors.Is(err, ErrBudgetTooSmall) {
		t.Fatalf("err = %v, want ErrBudgetTooSmall", err)
	}
	if spy.calls() != 0 {
		t.Errorf("calls = %d, want 0", spy.calls())
	}
}

func TestEngine_GenerateComments(t *testing.T) {
	path := writeFile(t, t.TempDir(), "calc.py", "def div(a, b):\n    return a / 0\n")

	spy := &spyClient{reply: func(req providers.Request) (string, error) {
		if strings.Contains(req.Prompt, "fatal logical errors") {
			return "- Division by zero in div()", nil
		}
		return "- style", nil
	}}
	e := NewEngine(spy, DefaultPrompts(), nil)

	got, err := e.GenerateComments(context.Background(), path, "Divides numbers.", testOptions())
	if err != nil {
		t.Fatalf("GenerateComments error: %v", err)
	}
	if got != "- Division by zero in div()" {
		t.Errorf("comments = %q", got)
	}
	if spy.calls() != 1 {
		t.Errorf("calls = %d, want only the error pass", spy.calls())
	}
	if !strings.Contains(spy.prompts[0].Prompt, "Divides numbers.") {
		t.Error("error prompt missing purpose")
	}
	if spy.prompts[0].SystemMessages[0] != DefaultReviewSystem {
		t.Errorf("system = %q", spy.prompts[0].SystemMessages[0])
	}
}

func TestEngine_GenerateComments_UsesRules(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ok.py", "x = 1\n")
	rules := writeFile(t, dir, "rules.txt", "Always use snake_case.\n")

	spy := &spyClient{}
	e := NewEngine(spy, DefaultPrompts(), nil)
	opts := testOptions()
	opts.RulesPath = rules

	got, err := e.GenerateComments(context.Background(), path, "", opts)
	if err != nil {
		t.Fatal(err)
	}
	if got != Sentinel {
		t.Errorf("comments = %q, want %q", got, Sentinel)
	}
	if spy.calls() != 2 {
		t.Fatalf("calls = %d, want error pass + style pass", spy.calls())
	}
	if !strings.Contains(spy.prompts[1].Prompt, "Always use snake_case.") {
		t.Error("style prompt missing configured rules")
	}
}

func TestEngine_RedactsSecrets(t *testing.T) {
	secret := "sk-ant-" + strings.Repeat("a", 30)
	path := writeFile(t, t.TempDir(), "settings.py", "KEY = '"+secret+"'\n")

	spy := &spyClient{}
	e := NewEngine(spy, DefaultPrompts(), nil)
	if _, err := e.InferProgramPurpose(context.Background(), path, testOptions()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(spy.prompts[0].Prompt, secret) {
		t.Error("secret was sent to the provider")
	}

	spy = &spyClient{}
	e = NewEngine(spy, DefaultPrompts(), nil)
	opts := testOptions()
	opts.RedactSecrets = false
	if _, err := e.InferProgramPurpose(context.Background(), path, opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(spy.prompts[0].Prompt, secret) {
		t.Error("redaction disabled but secret missing")
	}
}

func TestEngine_Analyze(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.py", "print('hi')\n")
	writeFile(t, dir, "pkg/buggy.py", "BUG = [][0]\n")
	writeFile(t, dir, "notes.txt", "not python\n")
	writeFile(t, dir, "__pycache__/cached.py", "x = 1\n")

	spy := &spyClient{reply: func(req providers.Request) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "SUMMARY SO FAR"):
			return "A tiny script.", nil
		case strings.Contains(req.Prompt, "BUG = [][0]") && strings.Contains(req.Prompt, "fatal logical errors"):
			return "- IndexError: list index out of range", nil
		default:
			return Sentinel, nil
		}
	}}
	e := NewEngine(spy, DefaultPrompts(), nil)

	report, err := e.Analyze(context.Background(), dir, testOptions())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(report.Files) != 2 {
		t.Fatalf("files = %d, want 2: %+v", len(report.Files), report.Files)
	}
	if report.Provider != "spy" || report.Model != "test-model" {
		t.Errorf("report provider/model = %q/%q", report.Provider, report.Model)
	}

	byName := map[string]FileResult{}
	for _, f := range report.Files {
		byName[filepath.Base(f.Path)] = f
	}
	if got := byName["clean.py"]; got.Status != StatusClean || got.Comments != "" || got.Purpose != "A tiny script." {
		t.Errorf("clean.py = %+v", got)
	}
	if got := byName["buggy.py"]; got.Status != StatusComments || !strings.Contains(got.Comments, "IndexError") {
		t.Errorf("buggy.py = %+v", got)
	}
	if report.Summary != (Summary{Files: 2, Clean: 1, WithComments: 1}) {
		t.Errorf("summary = %+v", report.Summary)
	}
	if !report.HasComments() {
		t.Error("HasComments should be true")
	}
}

func TestEngine_Analyze_RecordsFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "a = 1\n")
	writeFile(t, dir, "b.py", "b = 2\n")

	spy := &spyClient{reply: func(req providers.Request) (string, error) {
		if strings.Contains(req.Prompt, "a = 1") {
			return "", errors.New("malformed response")
		}
		return Sentinel, nil
	}}
	e := NewEngine(spy, DefaultPrompts(), nil)

	report, err := e.Analyze(context.Background(), dir, testOptions())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if report.Summary.Failed != 1 || report.Summary.Clean != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Files[0].Error == "" {
		t.Error("failed file should carry its error")
	}
}

type openBreaker struct{}

func (openBreaker) Name() string { return "broken" }

func (openBreaker) Complete(context.Context, providers.Request) (providers.Response, error) {
	return providers.Response{}, providers.ErrCircuitOpen
}

func TestEngine_Analyze_StopsOnFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "a = 1\n")

	e := NewEngine(openBreaker{}, DefaultPrompts(), nil)
	if _, err := e.Analyze(context.Background(), dir, testOptions()); !errors.Is(err, providers.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestEngine_Analyze_MissingRoot(t *testing.T) {
	spy := &spyClient{}
	e := NewEngine(spy, DefaultPrompts(), nil)
	report, err := e.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing"), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 0 || spy.calls() != 0 {
		t.Errorf("files = %d, calls = %d; want none", len(report.Files), spy.calls())
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SizeBudget = 0
	cfg.ContextWindow = 2048
	cfg.ResponseReserve = 512
	cfg.CharsPerToken = 3
	cfg.RulesFile = "rules.yaml"
	cfg.GitTracked = true

	opts := OptionsFromConfig(cfg)
	if opts.SizeBudget != (2048-512)*3 {
		t.Errorf("SizeBudget = %d, want %d", opts.SizeBudget, (2048-512)*3)
	}
	if opts.RulesPath != "rules.yaml" || !opts.Source.GitTracked {
		t.Errorf("opts = %+v", opts)
	}
	if opts.SummaryReserve != cfg.SummaryReserve || opts.Concurrency != cfg.Concurrency {
		t.Errorf("reserve/concurrency not carried over: %+v", opts)
	}
}
