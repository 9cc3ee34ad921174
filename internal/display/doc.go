// Package display orchestrates the on-screen alert stack.
//
// A Manager keeps every active alert in one shared deque. Top-anchored alerts
// are inserted at the front and bottom-anchored alerts at the back, so the
// deque order is also the layout order. All deque mutation, state transitions
// and surface commands run on a single Loop goroutine; the public entry points
// only post work to it.
//
// Rendering is delegated to a Surface. RecordingSurface records commands for
// headless runs and tests; the tui package provides a terminal surface.
package display
