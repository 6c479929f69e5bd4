// Package gitctx drives the git executable for submissions: it stages the
// work tree, captures the staged diff, and reads the remote, branch, and
// HEAD commit that identify where the diff came from.
//
// [Client] abstracts the commands so callers can run against a fake.
// [Collect] derives the organization and repository from the remote URL.
package gitctx
