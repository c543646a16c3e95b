package providers

import (
	"github.com/dshills/glean/internal/cache"
	"github.com/dshills/glean/internal/metrics"
)

// StackOptions selects the middleware wrapped around a base client.
// Zero values disable the corresponding layer.
type StackOptions struct {
	// Model is the default model, used for cache keys.
	Model   string
	Cache   *cache.Cache
	Metrics *metrics.Recorder
	Retry   RetryConfig
	Breaker BreakerConfig

	RequestsPerSecond float64
	Burst             int
}

// Stack wraps base with, from outermost to innermost: logging, metrics,
// cache, retry, rate limit and circuit breaker.
func Stack(base Client, opts StackOptions) Client {
	return Wrap(base,
		WithLogging(),
		WithMetrics(opts.Metrics),
		WithCache(opts.Cache, opts.Model, opts.Metrics),
		WithRetry(opts.Retry),
		WithRateLimit(opts.RequestsPerSecond, opts.Burst),
		WithBreaker(opts.Breaker),
	)
}
