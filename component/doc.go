// Package component defines the lifecycle interface shared by everything the
// harness starts and stops: broker clusters and test fixtures.
package component
