package providers

import (
	"context"
	"time"

	"github.com/dshills/glean/internal/cache"
	"github.com/dshills/glean/internal/logging"
	"github.com/dshills/glean/internal/metrics"
)

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// WithLogging logs every request at debug level and failures at warn.
func WithLogging() Middleware {
	return func(next Client) Client {
		return &logged{next: next}
	}
}

type logged struct{ next Client }

func (l *logged) Name() string { return l.next.Name() }

func (l *logged) Complete(ctx context.Context, req Request) (Response, error) {
	log := logging.FromContext(ctx).With("provider", l.next.Name())
	start := time.Now()
	log.Debug("inference request", "model", req.Model, "prompt_chars", len(req.Prompt))

	resp, err := l.next.Complete(ctx, req)
	if err != nil {
		log.Warn("inference failed", "duration", time.Since(start), "error", err)
		return resp, err
	}
	log.Debug("inference complete", "duration", time.Since(start), "tokens", resp.TokensUsed)
	return resp, nil
}

// WithMetrics records request counts, latency and token usage.
func WithMetrics(rec *metrics.Recorder) Middleware {
	if rec == nil {
		return nil
	}
	return func(next Client) Client {
		return &measured{next: next, rec: rec}
	}
}

type measured struct {
	next Client
	rec  *metrics.Recorder
}

func (m *measured) Name() string { return m.next.Name() }

func (m *measured) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := m.next.Complete(ctx, req)
	m.rec.ObserveInference(m.next.Name(), time.Since(start), resp.TokensUsed, err)
	return resp, err
}

// WithCache answers repeated requests from c. model is used in the cache key
// when a request does not name its own model.
func WithCache(c *cache.Cache, model string, rec *metrics.Recorder) Middleware {
	if c == nil {
		return nil
	}
	return func(next Client) Client {
		return &cached{next: next, cache: c, model: model, rec: rec}
	}
}

type cached struct {
	next  Client
	cache *cache.Cache
	model string
	rec   *metrics.Recorder
}

func (c *cached) Name() string { return c.next.Name() }

func (c *cached) Complete(ctx context.Context, req Request) (Response, error) {
	key := cache.BuildCacheKey(c.next.Name(), modelFor(req, c.model), req.SystemMessages, req.Prompt)
	if content, ok := c.cache.Get(key); ok {
		c.rec.CacheHit()
		return Response{Content: content}, nil
	}
	c.rec.CacheMiss()

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return resp, err
	}
	if perr := c.cache.Put(key, resp.Content); perr != nil {
		logging.FromContext(ctx).Warn("cache write failed", "error", perr)
	}
	return resp, nil
}
