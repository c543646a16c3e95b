// Package cache stores inference responses so that repeated runs over
// unchanged files do not pay for the same prompt twice.
//
// Every cache has an in-memory LRU front. A disk tier can be enabled on top of
// it; disk entries are JSON files keyed by a SHA-256 hash of the provider,
// model, system messages and prompt. Entries older than the TTL are skipped on
// read. The default disk directory is $XDG_CACHE_HOME/glean (or the
// OS-appropriate equivalent). Prompts have already been through secret
// redaction before they reach the cache.
package cache
