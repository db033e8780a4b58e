// Package bootstrap runs a one-shot command with a uniform lifecycle:
// config defaults and validation, logger setup, start hooks, the task itself
// under a signal-cancelled context, stop hooks and a printed summary.
package bootstrap
