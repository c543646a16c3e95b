// Package config holds glean's settings and merges them from four layers.
// Later layers win:
//
//  1. Built-in defaults ([Default])
//  2. The JSON config file at $XDG_CONFIG_HOME/glean/config.json
//  3. GLEAN_* environment variables
//  4. Command-line overrides passed to [Load]
//
// Keys are addressed by their JSON names, with dots for nested sections
// (for example "cache.enabled"); [Keys] lists them and [SetField] sets one.
package config
