package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/glean/internal/cache"
	"github.com/dshills/glean/internal/config"
	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/metrics"
	"github.com/dshills/glean/internal/providers"
	"github.com/dshills/glean/internal/review"
)

// Shared flags
var (
	flagProvider    string
	flagModel       string
	flagRules       string
	flagSizeBudget  int
	flagConcurrency int
	flagFormat      string
	flagOut         string
	flagNoRedact    bool
	flagLogLevel    string
	flagMetricsFile string
)

func addSharedFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&flagProvider, "provider", "", "LLM provider ("+strings.Join(providers.Names(), ", ")+")")
	f.StringVar(&flagModel, "model", "", "Model name")
	f.StringVar(&flagRules, "rules", "", "Rules file path (JSON, YAML or plain text)")
	f.IntVar(&flagSizeBudget, "size-budget", 0, "Character budget per prompt")
	f.IntVar(&flagConcurrency, "concurrency", 0, "Maximum review calls in flight per pass")
	f.StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(config.Formats, ", ")+")")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagSizeBudget > 0 {
		m["sizeBudget"] = strconv.Itoa(flagSizeBudget)
	}
	if flagConcurrency > 0 {
		m["concurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	return m
}

// loadConfig merges the configuration with the command line and installs
// the configured logger in the returned context.
func loadConfig(cmd *cobra.Command) (context.Context, config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, config.Config{}, err
	}
	if !slices.Contains(providers.Names(), cfg.Provider) {
		return nil, config.Config{}, fmt.Errorf("unknown provider %q (valid: %s)", cfg.Provider, strings.Join(providers.Names(), ", "))
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, config.Config{}, err
	}
	logger := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	slog.SetDefault(logger)
	if flagNoRedact {
		logger.Warn("secret redaction is disabled")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithLogger(ctx, logger), cfg, nil
}

// buildEngine creates the provider client, wraps it with the middleware
// stack configured in cfg and returns an engine on top of it.
func buildEngine(cfg config.Config) (*review.Engine, *metrics.Recorder, error) {
	c, err := cache.New(cache.Options{
		Disk:          cfg.Cache.Enabled,
		Dir:           cfg.Cache.Dir,
		TTLSeconds:    cfg.Cache.TTLSeconds,
		MemoryEntries: cfg.Cache.MemoryEntries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	client, rec, err := buildClient(cfg, c)
	if err != nil {
		return nil, nil, err
	}

	prompts, err := review.LoadPrompts(review.PromptFiles{
		PurposeFile:   cfg.Prompts.PurposeFile,
		ErrorsFile:    cfg.Prompts.ErrorsFile,
		StyleFile:     cfg.Prompts.StyleFile,
		PurposeSystem: cfg.Prompts.PurposeSystem,
		ReviewSystem:  cfg.Prompts.ReviewSystem,
	})
	if err != nil {
		return nil, nil, err
	}
	return review.NewEngine(client, prompts, rec), rec, nil
}

// buildClient wraps the configured provider in the middleware stack. A nil
// cache leaves responses uncached.
func buildClient(cfg config.Config, c *cache.Cache) (providers.Client, *metrics.Recorder, error) {
	base, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, nil, &setupError{err}
	}

	retry := providers.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Limits.MaxRetries + 1
	breaker := providers.DefaultBreakerConfig()
	if cfg.Limits.BreakerFailureRatio > 0 {
		breaker.FailureThreshold = cfg.Limits.BreakerFailureRatio
	}

	rec := metrics.New()
	client := providers.Stack(base, providers.StackOptions{
		Model:             cfg.Model,
		Cache:             c,
		Metrics:           rec,
		Retry:             retry,
		Breaker:           breaker,
		RequestsPerSecond: cfg.Limits.RequestsPerSecond,
		Burst:             cfg.Limits.Burst,
	})
	return client, rec, nil
}

// setupError marks a provider that could not be constructed, usually for
// missing credentials.
type setupError struct {
	err error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

// exitFor maps an error to a process exit code.
func exitFor(err error) int {
	var se *setupError
	switch {
	case providers.IsAuthError(err), errors.As(err, &se):
		return ExitAuthError
	case errors.Is(err, review.ErrBudgetTooSmall):
		return ExitUsageError
	default:
		return ExitRuntimeError
	}
}

// fail reports err on stderr and records the matching exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = exitFor(err)
}

// writeMetrics writes rec to --metrics-file when set.
func writeMetrics(cmd *cobra.Command, rec *metrics.Recorder) {
	if err := rec.WriteFile(flagMetricsFile); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
}

// resultWriter returns the destination for results: --out when set, stdout
// otherwise. The returned close function must be called.
func resultWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if flagOut == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(flagOut)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// writeResult writes a single text result followed by a newline.
func writeResult(cmd *cobra.Command, text string) error {
	w, closeFn, err := resultWriter(cmd)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
