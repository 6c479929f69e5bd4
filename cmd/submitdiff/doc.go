// Submitdiff stages every change in the current git work tree and submits
// the staged diff to the review workbench for a given event.
//
// Usage:
//
//	submitdiff --mode dev --event-uid evt_123     # submit to the dev environment
//	submitdiff -m prod -e evt_123                  # short flags
//	submitdiff -m local -e evt_123 --dry-run       # stage and show, send nothing
//	submitdiff config init                         # write a default config file
//
// Exit status is 0 only when the review API answers 201 Created.
package main
