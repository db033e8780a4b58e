package testutil

import (
	"context"

	"github.com/kbukum/roundtrip/component"
)

// TestComponent is a component whose state tests can reset and rewind.
// Clusters backed by real processes usually only satisfy component.Component;
// in-memory doubles implement the full interface.
type TestComponent interface {
	component.Component

	// Reset returns the component to its initial state.
	Reset(ctx context.Context) error

	// Snapshot captures state that Restore can reinstate.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore reinstates a value returned by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
