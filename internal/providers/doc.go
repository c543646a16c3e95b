// Package providers implements the Client interface for each supported
// inference backend and the middleware layered on top of them.
//
// Supported providers: Anthropic (Claude) through anthropic-sdk-go, OpenAI
// through go-openai, Google (Gemini) through the Gen AI SDK, and Ollama / LM
// Studio through their OpenAI-compatible endpoint.
//
// SDK errors are classified into authentication, rate-limit and server
// errors. [Stack] wraps a client with logging, metrics, a response cache,
// retry with exponential back-off, rate limiting and a circuit breaker.
//
// Use [New] to obtain a Client by provider name and model string.
package providers
