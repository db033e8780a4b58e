// Package errors provides the structured error taxonomy used across the
// harness: every failure that ends a run is an *AppError carrying a
// machine-readable code and enough detail to diagnose it without rerunning.
package errors
