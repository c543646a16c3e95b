package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dshills/glean/internal/config"
	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/metrics"
	"github.com/dshills/glean/internal/providers"
	"github.com/dshills/glean/internal/redact"
	"github.com/dshills/glean/internal/source"
)

// Replies for paths that do not name a readable file. They are returned as
// results, not errors, so that an agent can read them.
const (
	PathMissing   = "Given path does not exist!"
	PathDirectory = "Given path refers to a directory, not a file."
)

// Options controls a single engine call.
type Options struct {
	Model          string
	RulesPath      string
	SizeBudget     int
	SummaryReserve int
	Concurrency    int
	MaxTokens      int
	Temperature    float64
	RedactSecrets  bool
	RedactPaths    []string
	MaxFileBytes   int64
	Source         source.Options
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SizeBudget:     DefaultSizeBudget,
		SummaryReserve: DefaultSummaryReserve,
		Concurrency:    DefaultConcurrency,
		MaxTokens:      providers.DefaultMaxTokens,
		RedactSecrets:  true,
	}
}

// OptionsFromConfig maps a merged configuration onto engine options.
func OptionsFromConfig(cfg config.Config) Options {
	budget := cfg.SizeBudget
	if budget <= 0 {
		budget = TokenBudget(cfg.ContextWindow, cfg.ResponseReserve, cfg.CharsPerToken)
	}
	return Options{
		Model:          cfg.Model,
		RulesPath:      cfg.RulesFile,
		SizeBudget:     budget,
		SummaryReserve: cfg.SummaryReserve,
		Concurrency:    cfg.Concurrency,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		RedactSecrets:  cfg.Privacy.RedactSecrets,
		RedactPaths:    cfg.Privacy.RedactPaths,
		MaxFileBytes:   cfg.MaxFileBytes,
		Source: source.Options{
			Suffixes:   cfg.Include,
			Exclude:    cfg.Exclude,
			GitTracked: cfg.GitTracked,
		},
	}
}

func (o Options) budget() int {
	if o.SizeBudget > 0 {
		return o.SizeBudget
	}
	return DefaultSizeBudget
}

// Engine runs purpose inference and review against a provider client.
type Engine struct {
	client  providers.Client
	prompts Prompts
	metrics *metrics.Recorder
}

// NewEngine creates an Engine. rec may be nil.
func NewEngine(client providers.Client, prompts Prompts, rec *metrics.Recorder) *Engine {
	return &Engine{client: client, prompts: prompts, metrics: rec}
}

// Provider returns the name of the underlying client.
func (e *Engine) Provider() string {
	return e.client.Name()
}

func (e *Engine) infer(opts Options) InferFunc {
	return func(ctx context.Context, prompt string, system []string) (string, error) {
		resp, err := e.client.Complete(ctx, providers.Request{
			Model:          opts.Model,
			Prompt:         prompt,
			SystemMessages: system,
			MaxTokens:      opts.MaxTokens,
			Temperature:    opts.Temperature,
		})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

// load reads path for processing. A non-empty reply means the path is not a
// regular file and the caller should return the reply as is.
func (e *Engine) load(ctx context.Context, path string, opts Options) (text, reply string, err error) {
	f, status, err := source.Read(path, opts.MaxFileBytes)
	switch {
	case err != nil:
		return "", "", err
	case status == source.StatusMissing:
		return "", PathMissing, nil
	case status == source.StatusDirectory:
		return "", PathDirectory, nil
	}

	text = f.Text
	if opts.RedactSecrets {
		var n int
		text, n = redact.New(opts.RedactPaths...).Redact(path, text)
		if n > 0 {
			logging.FromContext(ctx).Info("redacted secrets", "path", path, "count", n)
		}
	}
	return text, "", nil
}

// InferProgramPurpose returns a short description of what the file at path
// does, built by folding a running summary across its fragments.
func (e *Engine) InferProgramPurpose(ctx context.Context, path string, opts Options) (string, error) {
	text, reply, err := e.load(ctx, path, opts)
	if err != nil || reply != "" {
		return reply, err
	}

	s := NewSummarizer(e.prompts)
	s.MaxSummary = opts.SummaryReserve
	seq, err := Partition(text, s.Template, opts.budget()-opts.SummaryReserve, s.System)
	if err != nil {
		return "", err
	}
	frags := Fragments(seq)
	e.metrics.AddFragments("purpose", len(frags))
	logging.FromContext(ctx).Debug("inferring purpose", "path", path, "fragments", len(frags))

	purpose, err := s.Summarize(ctx, slices.Values(frags), e.infer(opts))
	if err != nil {
		return "", fmt.Errorf("inferring purpose of %s: %w", path, err)
	}
	return purpose, nil
}

// GenerateComments reviews the file at path given its purpose. It returns
// the sentinel when nothing was found.
func (e *Engine) GenerateComments(ctx context.Context, path, purpose string, opts Options) (string, error) {
	text, reply, err := e.load(ctx, path, opts)
	if err != nil || reply != "" {
		return reply, err
	}

	rules, err := LoadRules(ctx, opts.RulesPath)
	if err != nil {
		return "", err
	}
	constraints := rules.String()

	r := NewReviewer(e.prompts, opts.Concurrency)
	errs, style := r.Templates(purpose, constraints)
	widest := errs
	if style.Overhead() > errs.Overhead() {
		widest = style
	}
	seq, err := Partition(text, widest, opts.budget(), r.System)
	if err != nil {
		return "", err
	}
	frags := Fragments(seq)
	e.metrics.AddFragments("review", len(frags))
	logging.FromContext(ctx).Debug("reviewing file", "path", path, "fragments", len(frags))

	infer := e.infer(opts)
	comments, err := r.Review(ctx, frags, purpose, constraints, infer, infer)
	if err != nil {
		return "", fmt.Errorf("reviewing %s: %w", path, err)
	}
	e.metrics.Verdict(comments == r.sentinel())
	return comments, nil
}

// Analyze infers the purpose of, then reviews, every Python file under root.
// Files are processed one at a time. A failure on one file is recorded in the
// report and the run continues, except for cancellation, authentication and
// budget errors, which stop the run.
func (e *Engine) Analyze(ctx context.Context, root string, opts Options) (*Report, error) {
	log := logging.FromContext(ctx)
	report := NewReport(root, e.client.Name(), opts.Model)
	start := time.Now()

	files, err := source.ListPythonFiles(root, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	log.Info("analyzing files", "root", root, "count", len(files))

	for _, path := range files {
		res, err := e.analyzeFile(ctx, path, opts)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			log.Warn("file analysis failed", "path", path, "error", err)
			res.Status = StatusError
			res.Error = err.Error()
		}
		e.metrics.FileProcessed(res.Status)
		report.Files = append(report.Files, res)
	}

	report.Summary = ComputeSummary(report.Files)
	report.Timing.TotalMs = time.Since(start).Milliseconds()
	return report, nil
}

func (e *Engine) analyzeFile(ctx context.Context, path string, opts Options) (FileResult, error) {
	start := time.Now()
	res := FileResult{Path: path}

	purpose, err := e.InferProgramPurpose(ctx, path, opts)
	if err != nil {
		res.DurationMs = time.Since(start).Milliseconds()
		return res, err
	}
	if purpose == PathMissing || purpose == PathDirectory {
		// The file went away after it was listed.
		res.Status = StatusError
		res.Error = purpose
		return res, nil
	}
	res.Purpose = purpose

	comments, err := e.GenerateComments(ctx, path, purpose, opts)
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		return res, err
	}
	res.Comments = comments
	res.Status = StatusComments
	if comments == Sentinel {
		res.Status = StatusClean
		res.Comments = ""
	}
	return res, nil
}

func fatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrBudgetTooSmall) ||
		errors.Is(err, providers.ErrCircuitOpen) ||
		providers.IsAuthError(err)
}
