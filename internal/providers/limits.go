package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// WithRateLimit throttles requests to rps per second with the given burst.
// A non-positive rps disables the limiter.
func WithRateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return func(next Client) Client {
		return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

func (r *rateLimited) Name() string { return r.next.Name() }

func (r *rateLimited) Complete(ctx context.Context, req Request) (Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Complete(ctx, req)
}

// BreakerConfig holds the configuration for a circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit, e.g. 0.6
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32
}

// DefaultBreakerConfig returns configuration suited to inference APIs.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("provider circuit breaker is open")

// WithBreaker stops calling a provider that keeps failing. Only transient
// failures count against the provider; auth and request errors do not.
// A non-positive FailureThreshold disables the breaker.
func WithBreaker(cfg BreakerConfig) Middleware {
	if cfg.FailureThreshold <= 0 {
		return nil
	}
	return func(next Client) Client {
		settings := gobreaker.Settings{
			Name:        next.Name(),
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= cfg.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !IsRetryable(err)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}
		return &breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
	}
}

type breaker struct {
	next Client
	cb   *gobreaker.CircuitBreaker
}

func (b *breaker) Name() string { return b.next.Name() }

func (b *breaker) Complete(ctx context.Context, req Request) (Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Response{}, fmt.Errorf("%s: %w", b.next.Name(), ErrCircuitOpen)
	}
	resp, _ := out.(Response)
	return resp, err
}

// State returns the breaker state, for diagnostics.
func (b *breaker) State() gobreaker.State {
	return b.cb.State()
}
