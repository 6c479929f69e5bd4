// Package cli wires together the Cobra command tree for the submitdiff binary.
//
// The root command parses --mode and --event-uid, loads configuration, and
// hands off to the submit pipeline. The config and version subcommands
// manage the YAML config file and print the build version. Every failure
// maps to exit status 1.
package cli
