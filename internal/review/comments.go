package review

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/glean/internal/logging"
)

// Sentinel is the reply that means a fragment has nothing to report.
const Sentinel = "LGTM"

// DefaultConcurrency bounds the number of review calls in flight per pass.
const DefaultConcurrency = 4

// DefaultDelimiter separates fragment verdicts in the aggregated review.
const DefaultDelimiter = "\n\n"

// Reviewer runs the two review passes over a file's fragments.
type Reviewer struct {
	ErrorTemplate Template
	StyleTemplate Template
	System        string
	Sentinel      string
	Delimiter     string
	Concurrency   int
}

// NewReviewer returns a Reviewer using the review prompts from p and the
// default sentinel, delimiter and concurrency.
func NewReviewer(p Prompts, concurrency int) *Reviewer {
	return &Reviewer{
		ErrorTemplate: p.Errors,
		StyleTemplate: p.Style,
		System:        p.ReviewSystem,
		Sentinel:      Sentinel,
		Delimiter:     DefaultDelimiter,
		Concurrency:   concurrency,
	}
}

// Templates returns the error and style templates with purpose and rules
// filled in, ready for fragment substitution.
func (r *Reviewer) Templates(purpose, rules string) (errs, style Template) {
	errs = r.ErrorTemplate.Fill(PurposePlaceholder, purpose)
	style = r.StyleTemplate.Fill(
		PurposePlaceholder, purpose,
		ConstraintsPlaceholder, rules,
	)
	return errs, style
}

// Review checks fragments for errors first. Only when no fragment reports an
// error are they checked against rules. The result is either the sentinel or
// the non-sentinel verdicts joined in fragment order.
func (r *Reviewer) Review(ctx context.Context, fragments []Fragment, purpose, rules string, errorPass, stylePass InferFunc) (string, error) {
	errTmpl, styleTmpl := r.Templates(purpose, rules)

	found, err := r.pass(ctx, "errors", fragments, errTmpl, errorPass)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		found, err = r.pass(ctx, "style", fragments, styleTmpl, stylePass)
		if err != nil {
			return "", err
		}
	}

	if len(found) == 0 {
		return r.sentinel(), nil
	}
	delim := r.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	return strings.Join(found, delim), nil
}

// pass runs one inference per fragment with bounded parallelism and returns
// the non-sentinel verdicts in fragment order.
func (r *Reviewer) pass(ctx context.Context, name string, fragments []Fragment, tmpl Template, infer InferFunc) ([]string, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	system := []string{r.System}
	log := logging.FromContext(ctx)

	verdicts := make([]string, len(fragments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, f := range fragments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Debug("reviewing fragment", "pass", name, "fragment", f.Index, "line", f.Line)
			out, err := infer(gctx, tmpl.Render(f.Text), system)
			if err != nil {
				return fmt.Errorf("%s pass, fragment %d: %w", name, f.Index, err)
			}
			verdicts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var found []string
	for _, v := range verdicts {
		v = strings.TrimSpace(v)
		// Blank replies carry nothing to report.
		if v == "" || v == r.sentinel() {
			continue
		}
		found = append(found, v)
	}
	return found, nil
}

func (r *Reviewer) sentinel() string {
	if r.Sentinel == "" {
		return Sentinel
	}
	return r.Sentinel
}
