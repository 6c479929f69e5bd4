// Package config loads and merges submitdiff configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (SUBMITDIFF_CONTEXT_LINES, SUBMITDIFF_TIMEOUT, etc.)
//  3. Config file ($XDG_CONFIG_HOME/submitdiff/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
