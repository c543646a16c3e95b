// Package cli wires together the Cobra command tree for the glean binary.
//
// It defines the root command and all subcommands (list, purpose, comments,
// analyze, serve, config, models, cache, version), binds flags, reads
// configuration, builds the provider middleware stack and the review
// engine, and returns deterministic exit codes for CI gating.
package cli
