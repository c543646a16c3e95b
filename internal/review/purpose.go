package review

import (
	"context"
	"fmt"
	"iter"

	"github.com/dshills/glean/internal/logging"
)

// InitialSummary seeds the running summary before the first fragment is read.
const InitialSummary = "# This is the start of the program."

// DefaultSummaryReserve is the share of the size budget kept free for the
// running summary that is prepended to every purpose prompt.
const DefaultSummaryReserve = 400

// InferFunc sends one prompt with its system messages to a model and returns
// the model's reply.
type InferFunc func(ctx context.Context, prompt string, system []string) (string, error)

// Summarizer folds a sequence of fragments into a short description of what
// the program does.
type Summarizer struct {
	Template Template
	System   string
	Initial  string

	// MaxSummary caps the runes of the summary carried into the next
	// prompt. Zero leaves it uncapped.
	MaxSummary int
}

// NewSummarizer returns a Summarizer that uses the purpose prompt from p.
func NewSummarizer(p Prompts) *Summarizer {
	return &Summarizer{
		Template: p.Purpose,
		System:   p.PurposeSystem,
		Initial:  InitialSummary,
	}
}

// Summarize visits fragments in order, replacing the running summary with
// each reply. Calls are strictly sequential; the first error stops the fold.
func (s *Summarizer) Summarize(ctx context.Context, fragments iter.Seq[Fragment], infer InferFunc) (string, error) {
	summary := s.Initial
	if summary == "" {
		summary = InitialSummary
	}
	system := []string{s.System}
	log := logging.FromContext(ctx)

	for f := range fragments {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		prompt := s.carry(summary) + s.Template.Render(f.Text)
		log.Debug("summarizing fragment", "fragment", f.Index, "line", f.Line, "chars", len(f.Text))

		out, err := infer(ctx, prompt, system)
		if err != nil {
			return "", fmt.Errorf("fragment %d: %w", f.Index, err)
		}
		summary = out
	}
	return summary, nil
}

func (s *Summarizer) carry(summary string) string {
	if s.MaxSummary <= 0 {
		return summary
	}
	return summary[:byteIndexOfRune(summary, s.MaxSummary)]
}
