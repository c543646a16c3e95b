// Package redact removes secrets from Python source before any of it is sent
// to an inference provider.
//
// Detection uses regex heuristics for common secret shapes: API keys, JWTs,
// private key headers, AWS credentials, bearer tokens, database URLs with
// embedded passwords, and provider tokens (Anthropic, OpenAI, GitHub, Slack).
// Every match becomes [REDACTED]; the Redactor reports how many matches it
// replaced so callers can log it.
package redact
