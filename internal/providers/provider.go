package providers

import (
	"context"
	"fmt"
	"sort"
)

// DefaultMaxTokens caps a response when the request does not set a limit.
const DefaultMaxTokens = 4096

// Request is one prompt sent to a model.
type Request struct {
	// Model overrides the client's configured model when set.
	Model          string
	Prompt         string
	SystemMessages []string
	MaxTokens      int
	Temperature    float64
}

// Response contains the raw text returned by a model.
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the provider abstraction interface.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

var constructors = map[string]func(model string) (Client, error){
	"anthropic": func(m string) (Client, error) { c, err := NewAnthropic(m); return orNil(c, err) },
	"openai":    func(m string) (Client, error) { c, err := NewOpenAI(m); return orNil(c, err) },
	"gemini":    func(m string) (Client, error) { c, err := NewGemini(m); return orNil(c, err) },
	"google":    func(m string) (Client, error) { c, err := NewGemini(m); return orNil(c, err) },
	"ollama":    func(m string) (Client, error) { c, err := NewOllama(m); return orNil(c, err) },
	"lmstudio":  func(m string) (Client, error) { c, err := NewOllama(m); return orNil(c, err) },
}

// orNil keeps a failed constructor from returning a non-nil interface
// holding a nil pointer.
func orNil[T Client](c T, err error) (Client, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// New creates a provider by name.
func New(provider, model string) (Client, error) {
	ctor, ok := constructors[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return ctor(model)
}

// Names lists the accepted provider names, aliases included.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}

func modelFor(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}
